// Package store holds the roster state of one signed-in session and applies
// the data client's results to it.
package store

import (
	"context"
	"sync"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/roster/model"
	"anoa.com/studentroster/internal/roster/projection"
	"github.com/sirupsen/logrus"
)

// State is a snapshot. Records is shared with the store and must not be
// modified by callers.
type State struct {
	Records []model.Student
	// Loaded is set once a full list has been received.
	Loaded  bool
	Loading bool
	Error   string
	Filters model.Filters
}

type Store struct {
	api client.StudentAPI

	mu       sync.Mutex
	state    State
	revision uint64

	visible     []model.Student
	visibleRev  uint64
	visibleFor  model.Filters
	visibleSet  bool
	nextSubID   int
	subscribers map[int]func(State)
}

func New(api client.StudentAPI) *Store {
	return &Store{
		api:         api,
		state:       State{Records: []model.Student{}, Filters: model.DefaultFilters()},
		subscribers: map[int]func(State){},
	}
}

// Subscribe registers fn to receive every new state. The returned function
// deregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Visible is the filtered and sorted projection of the current state.
func (s *Store) Visible() []model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.visibleSet || s.visibleRev != s.revision || s.visibleFor != s.state.Filters {
		s.visible = projection.Apply(s.state.Records, s.state.Filters)
		s.visibleRev = s.revision
		s.visibleFor = s.state.Filters
		s.visibleSet = true
	}
	return s.visible
}

// Classes lists the distinct classes of the loaded records.
func (s *Store) Classes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return projection.Classes(s.state.Records)
}

// Find returns the loaded record with id.
func (s *Store) Find(id string) (model.Student, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.state.Records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Student{}, false
}

// update applies fn under the lock and notifies subscribers. records must be
// true when fn replaced the record slice.
func (s *Store) update(fn func(*State), records bool) {
	s.mu.Lock()
	fn(&s.state)
	if records {
		s.revision++
	}
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

func (s *Store) started() {
	s.update(func(st *State) {
		st.Loading = true
		st.Error = ""
	}, false)
}

func (s *Store) failed(op string, err error) {
	logrus.WithError(err).WithField("op", op).Debug("roster operation failed")
	s.update(func(st *State) {
		st.Loading = false
		st.Error = err.Error()
	}, false)
}

// FetchAll replaces the records with the backend's list.
func (s *Store) FetchAll(ctx context.Context) error {
	s.started()
	records, err := s.api.List(ctx)
	if err != nil {
		s.failed("list", err)
		return err
	}
	s.update(func(st *State) {
		st.Loading = false
		st.Loaded = true
		st.Records = records
	}, true)
	return nil
}

// Create inserts a record and prepends the backend's copy of it.
func (s *Store) Create(ctx context.Context, payload model.NewStudent) (*model.Student, error) {
	s.started()
	created, err := s.api.Insert(ctx, payload)
	if err != nil {
		s.failed("insert", err)
		return nil, err
	}
	s.update(func(st *State) {
		st.Loading = false
		records := make([]model.Student, 0, len(st.Records)+1)
		records = append(records, *created)
		st.Records = append(records, st.Records...)
	}, true)
	return created, nil
}

// Update applies a partial change. If the record is no longer loaded the
// records are left untouched.
func (s *Store) Update(ctx context.Context, id string, patch model.StudentPatch) (*model.Student, error) {
	s.started()
	updated, err := s.api.Update(ctx, id, patch)
	if err != nil {
		s.failed("update", err)
		return nil, err
	}
	s.update(func(st *State) {
		st.Loading = false
		for i, r := range st.Records {
			if r.ID == updated.ID {
				records := make([]model.Student, len(st.Records))
				copy(records, st.Records)
				records[i] = *updated
				st.Records = records
				return
			}
		}
	}, true)
	return updated, nil
}

// Delete removes the record the backend reports as deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.started()
	deletedID, err := s.api.Delete(ctx, id)
	if err != nil {
		s.failed("delete", err)
		return err
	}
	s.update(func(st *State) {
		st.Loading = false
		records := make([]model.Student, 0, len(st.Records))
		for _, r := range st.Records {
			if r.ID != deletedID {
				records = append(records, r)
			}
		}
		st.Records = records
	}, true)
	return nil
}

func (s *Store) SetSearch(query string) {
	s.update(func(st *State) { st.Filters.Search = query }, false)
}

func (s *Store) SetClassFilter(class string) {
	s.update(func(st *State) { st.Filters.Class = class }, false)
}

func (s *Store) SetSortField(field model.SortField) {
	s.update(func(st *State) { st.Filters.SortBy = field }, false)
}

func (s *Store) SetSortOrder(order model.SortOrder) {
	s.update(func(st *State) { st.Filters.SortOrder = order }, false)
}

func (s *Store) ClearError() {
	s.update(func(st *State) { st.Error = "" }, false)
}
