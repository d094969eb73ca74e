// Package session keeps the signed-in browser sessions of the web app. Each
// session owns its roster store and a watcher on the backend's session
// events.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/roster/model"
	"anoa.com/studentroster/internal/roster/store"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type Session struct {
	ID    string
	Token string
	Store *store.Store

	mu        sync.Mutex
	user      model.User
	stopWatch func()
}

func (s *Session) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) setUser(u model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// StudentsFactory builds a data client bound to a session token.
type StudentsFactory func(token string) client.StudentAPI

type Manager struct {
	auth     client.AuthAPI
	students StudentsFactory

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(auth client.AuthAPI, students StudentsFactory) *Manager {
	return &Manager{
		auth:     auth,
		students: students,
		sessions: map[string]*Session{},
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Start registers a signed-in session and subscribes to its session events.
// A sign-out pushed by the backend drops the session.
func (m *Manager) Start(ctx context.Context, auth *model.Session) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Token:     auth.Token,
		Store:     store.New(m.students(auth.Token)),
		user:      auth.User,
		stopWatch: func() {},
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	stop, err := m.auth.Watch(ctx, auth.Token, func(u *model.User) {
		if u == nil {
			logrus.WithField("user_id", s.User().ID).Info("session ended by backend")
			m.drop(s.ID)
			return
		}
		s.setUser(*u)
	})
	if err != nil {
		logrus.WithError(err).Warn("session watch unavailable")
		return s
	}

	s.mu.Lock()
	s.stopWatch = stop
	s.mu.Unlock()

	// the watcher may have ended the session before stop was stored
	if _, ok := m.Get(s.ID); !ok {
		stop()
	}
	return s
}

// drop forgets the session and deregisters its watcher.
func (m *Manager) drop(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = func() {}
	s.mu.Unlock()

	stop()
	return s, true
}

// Forget drops a session whose token the backend no longer accepts. There is
// nothing to sign out remotely.
func (m *Manager) Forget(id string) {
	if s, ok := m.drop(id); ok {
		logrus.WithField("user_id", s.User().ID).Info("session token rejected by backend")
	}
}

// End signs the session out at the backend and forgets it.
func (m *Manager) End(ctx context.Context, id string) error {
	s, ok := m.drop(id)
	if !ok {
		return nil
	}
	return m.auth.SignOut(ctx, s.Token)
}

// Close ends every session. Errors are collected, not fatal.
func (m *Manager) Close() error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var result *multierror.Error
	for _, id := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.End(ctx, id); err != nil {
			result = multierror.Append(result, fmt.Errorf("session %s: %w", id, err))
		}
		cancel()
	}
	return result.ErrorOrNil()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
