package session

import (
	"context"
	"testing"
	"time"

	"anoa.com/studentroster/internal/modules/user/dto"
	"github.com/google/uuid"
)

func TestMemoryServiceDeliversToUserWatchers(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	aliceEvents, cancelAlice, err := svc.Subscribe(ctx, alice)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancelAlice()
	bobEvents, cancelBob, _ := svc.Subscribe(ctx, bob)
	defer cancelBob()

	user := &dto.UserResponse{ID: alice, Email: "alice@school.edu"}
	if err := svc.Publish(ctx, alice, SignedIn(user)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-aliceEvents:
		if ev.Type != EventSignedIn || ev.User == nil || ev.User.Email != "alice@school.edu" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive event")
	}

	select {
	case ev := <-bobEvents:
		t.Fatalf("bob received %+v", ev)
	default:
	}
}

func TestMemoryServiceCancelClosesChannel(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	id := uuid.New()

	events, cancel, _ := svc.Subscribe(ctx, id)
	cancel()
	cancel()

	if _, ok := <-events; ok {
		t.Fatal("channel must be closed after cancel")
	}
	// publishing after the watcher left must not panic
	if err := svc.Publish(ctx, id, SignedOut()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestMemoryServiceRevocation(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	if revoked, _ := svc.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("fresh token reported revoked")
	}
	if err := svc.RevokeToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if revoked, _ := svc.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("revoked token reported valid")
	}

	svc.RevokeToken(ctx, "jti-2", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if revoked, _ := svc.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatal("revocation must expire with the token")
	}
}
