package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"anoa.com/studentroster/internal/modules/user/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
)

// Event is pushed to every watcher of a user whenever the user's session
// changes. User is nil when nobody is signed in.
type Event struct {
	Type string            `json:"type"`
	User *dto.UserResponse `json:"user"`
}

func SignedIn(user *dto.UserResponse) Event {
	return Event{Type: EventSignedIn, User: user}
}

func SignedOut() Event {
	return Event{Type: EventSignedOut}
}

type Service interface {
	Publish(ctx context.Context, userID uuid.UUID, event Event) error
	// Subscribe delivers events for userID until cancel is called.
	Subscribe(ctx context.Context, userID uuid.UUID) (events <-chan Event, cancel func(), err error)
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewService returns a redis backed service, or an in-process one when
// redisClient is nil.
func NewService(redisClient *redis.Client) Service {
	if redisClient == nil {
		return newMemoryService()
	}
	return &redisService{redisClient: redisClient}
}

func channelName(userID uuid.UUID) string {
	return fmt.Sprintf("auth_session:%s", userID.String())
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked_token:%s", tokenID)
}

type redisService struct {
	redisClient *redis.Client
}

func (s *redisService) Publish(ctx context.Context, userID uuid.UUID, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.redisClient.Publish(ctx, channelName(userID), payload).Err()
}

func (s *redisService) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Event, func(), error) {
	pubsub := s.redisClient.Subscribe(ctx, channelName(userID))

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logrus.WithError(err).Warn("dropping malformed session event")
					continue
				}
				select {
				case out <- event:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}
	return out, cancel, nil
}

func (s *redisService) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.redisClient.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (s *redisService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redisClient.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type memoryService struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
	revoked     map[string]time.Time
}

func newMemoryService() *memoryService {
	return &memoryService{
		subscribers: map[uuid.UUID]map[chan Event]struct{}{},
		revoked:     map[string]time.Time{},
	}
}

func (s *memoryService) Publish(_ context.Context, userID uuid.UUID, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers[userID] {
		select {
		case ch <- event:
		default:
			logrus.WithField("user_id", userID).Warn("session watcher is slow, dropping event")
		}
	}
	return nil
}

func (s *memoryService) Subscribe(_ context.Context, userID uuid.UUID) (<-chan Event, func(), error) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.subscribers[userID] == nil {
		s.subscribers[userID] = map[chan Event]struct{}{}
	}
	s.subscribers[userID][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers[userID], ch)
			if len(s.subscribers[userID]) == 0 {
				delete(s.subscribers, userID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (s *memoryService) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (s *memoryService) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[tokenID]
	return ok && time.Now().Before(exp), nil
}
