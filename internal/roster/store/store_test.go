package store

import (
	"context"
	"reflect"
	"testing"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/roster/client/mocks"
	"anoa.com/studentroster/internal/roster/model"
	"go.uber.org/mock/gomock"
)

func str(s string) *string { return &s }

func ids(records []model.Student) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func seeded(t *testing.T, records ...model.Student) (*Store, *mocks.MockStudentAPI) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockStudentAPI(ctrl)
	s := New(api)

	api.EXPECT().List(gomock.Any()).Return(records, nil)
	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	return s, api
}

func TestFetchAllPhases(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockStudentAPI(ctrl)
	s := New(api)

	var seen []State
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st) })
	defer unsubscribe()

	records := []model.Student{{ID: "2", Name: "Ann"}, {ID: "1", Name: "Bob"}}
	api.EXPECT().List(gomock.Any()).Return(records, nil)

	if err := s.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("want started and succeeded, got %d states", len(seen))
	}
	if !seen[0].Loading || seen[0].Error != "" {
		t.Fatalf("started state = %+v", seen[0])
	}
	if seen[1].Loading || !seen[1].Loaded || !reflect.DeepEqual(ids(seen[1].Records), []string{"2", "1"}) {
		t.Fatalf("succeeded state = %+v", seen[1])
	}
}

func TestFailureKeepsRecordsAndSetsError(t *testing.T) {
	s, api := seeded(t, model.Student{ID: "1", Name: "Bob"})
	s.failed("seed", &client.Error{Message: "previous"})

	var started State
	first := true
	unsubscribe := s.Subscribe(func(st State) {
		if first {
			started, first = st, false
		}
	})
	defer unsubscribe()

	api.EXPECT().Delete(gomock.Any(), "1").Return("", &client.Error{Message: "network down"})
	if err := s.Delete(context.Background(), "1"); err == nil {
		t.Fatal("want error")
	}

	if started.Error != "" || !started.Loading {
		t.Fatalf("started must clear the previous error: %+v", started)
	}
	st := s.State()
	if st.Loading || st.Error != "network down" {
		t.Fatalf("failed state = %+v", st)
	}
	if !reflect.DeepEqual(ids(st.Records), []string{"1"}) {
		t.Fatalf("records changed on failure: %v", ids(st.Records))
	}

	s.ClearError()
	if s.State().Error != "" {
		t.Fatal("ClearError did not clear")
	}
}

func TestCreatePrependsServerRecord(t *testing.T) {
	s, api := seeded(t, model.Student{ID: "1", Name: "Bob"})

	payload := model.NewStudent{Name: "Ann", RollNumber: "001", Class: "10B"}
	server := &model.Student{ID: "srv-9", Name: "Ann", RollNumber: "001", Class: "10B", UserID: "u1"}
	api.EXPECT().Insert(gomock.Any(), payload).Return(server, nil)

	got, err := s.Create(context.Background(), payload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != "srv-9" {
		t.Fatalf("Create returned %+v", got)
	}
	records := s.State().Records
	if !reflect.DeepEqual(ids(records), []string{"srv-9", "1"}) {
		t.Fatalf("records = %v", ids(records))
	}
	if !reflect.DeepEqual(records[0], *server) {
		t.Fatalf("store must keep the server's copy, got %+v", records[0])
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	email := "ann@school.edu"
	s, api := seeded(t,
		model.Student{ID: "1", Name: "Bob", RollNumber: "002", Class: "10A"},
		model.Student{ID: "2", Name: "Ann", RollNumber: "001", Class: "10B", Email: &email},
		model.Student{ID: "3", Name: "Cy", RollNumber: "003", Class: "10A"},
	)
	before := s.State().Records

	patch := model.StudentPatch{Class: str("11B")}
	updated := model.Student{ID: "2", Name: "Ann", RollNumber: "001", Class: "11B", Email: &email}
	api.EXPECT().Update(gomock.Any(), "2", patch).Return(&updated, nil)

	if _, err := s.Update(context.Background(), "2", patch); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after := s.State().Records
	if !reflect.DeepEqual(ids(after), []string{"1", "2", "3"}) {
		t.Fatalf("order changed: %v", ids(after))
	}
	if after[1].Class != "11B" || after[1].Name != "Ann" || *after[1].Email != email {
		t.Fatalf("record 2 = %+v", after[1])
	}
	if !reflect.DeepEqual(after[0], before[0]) || !reflect.DeepEqual(after[2], before[2]) {
		t.Fatal("other records changed")
	}
	if before[1].Class != "10B" {
		t.Fatal("earlier snapshot was mutated")
	}
}

func TestUpdateOfUnloadedRecordIsIgnored(t *testing.T) {
	s, api := seeded(t, model.Student{ID: "1", Name: "Bob"})

	api.EXPECT().Update(gomock.Any(), "404", gomock.Any()).Return(&model.Student{ID: "404", Name: "Ghost"}, nil)
	if _, err := s.Update(context.Background(), "404", model.StudentPatch{Name: str("Ghost")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	st := s.State()
	if st.Loading || st.Error != "" || !reflect.DeepEqual(ids(st.Records), []string{"1"}) {
		t.Fatalf("state = %+v", st)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s, api := seeded(t,
		model.Student{ID: "1", Name: "Bob"},
		model.Student{ID: "2", Name: "Ann"},
		model.Student{ID: "3", Name: "Cy"},
	)

	api.EXPECT().Delete(gomock.Any(), "2").Return("2", nil)
	if err := s.Delete(context.Background(), "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := ids(s.State().Records); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Fatalf("records = %v", got)
	}
}

func TestFiltersDoNotCallBackend(t *testing.T) {
	s, _ := seeded(t,
		model.Student{ID: "1", Name: "Bob", RollNumber: "002", Class: "10A"},
		model.Student{ID: "2", Name: "Ann", RollNumber: "001", Class: "10B"},
	)

	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Fatalf("default order = %v", got)
	}

	s.SetSortOrder(model.SortDesc)
	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("desc = %v", got)
	}

	s.SetClassFilter("10B")
	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("class filter = %v", got)
	}

	s.SetClassFilter("")
	s.SetSearch("BOB")
	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("search = %v", got)
	}

	s.SetSearch("")
	s.SetSortField(model.SortByRollNumber)
	s.SetSortOrder(model.SortAsc)
	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Fatalf("roll asc = %v", got)
	}

	if got := s.Classes(); !reflect.DeepEqual(got, []string{"10A", "10B"}) {
		t.Fatalf("Classes = %v", got)
	}
	if st := s.State(); st.Loading {
		t.Fatal("setters must not mark loading")
	}
}

func TestVisibleIsMemoized(t *testing.T) {
	s, api := seeded(t, model.Student{ID: "1", Name: "Bob"}, model.Student{ID: "2", Name: "Ann"})

	first := s.Visible()
	if second := s.Visible(); &first[0] != &second[0] {
		t.Fatal("unchanged state must reuse the projection")
	}

	api.EXPECT().Delete(gomock.Any(), "1").Return("1", nil)
	s.Delete(context.Background(), "1")
	if got := ids(s.Visible()); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("projection not refreshed: %v", got)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := New(mocks.NewMockStudentAPI(gomock.NewController(t)))

	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })
	s.SetSearch("a")
	unsubscribe()
	s.SetSearch("b")

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestFindLooksUpLoadedRecords(t *testing.T) {
	s, _ := seeded(t, model.Student{ID: "1", Name: "Bob"})
	if r, ok := s.Find("1"); !ok || r.Name != "Bob" {
		t.Fatalf("Find(1) = %+v, %v", r, ok)
	}
	if _, ok := s.Find("2"); ok {
		t.Fatal("Find(2) must miss")
	}
}
