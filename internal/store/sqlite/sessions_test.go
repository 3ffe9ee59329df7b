package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/store"
)

func makeTestSession(id, userID, tokenHash string, expires time.Time) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        expires,
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        "192.168.1.10",
		UserAgent:        "EchoVerse Web",
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1", "a@example.com")

	sess := makeTestSession("sess-1", "user-1", "hash-1", time.Now().Add(time.Hour))
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByRefreshToken(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetSessionByRefreshToken: %v", err)
	}
	if got.ID != "sess-1" || got.UserAgent != "EchoVerse Web" || got.IPAddress != "192.168.1.10" {
		t.Errorf("unexpected session: %+v", got)
	}

	got.RefreshTokenHash = "hash-2"
	got.Touch()
	if err := s.UpdateSession(ctx, got); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if _, err := s.GetSessionByRefreshToken(ctx, "hash-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old token should be gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); err != nil {
		t.Errorf("GetSession: %v", err)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := s.DeleteSession(ctx, "sess-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestCreateSession_UnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateSession(context.Background(), makeTestSession("sess-1", "ghost", "h", time.Now().Add(time.Hour)))
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	makeTestUser(t, s, "user-1", "a@example.com")

	sessions := []*domain.Session{
		makeTestSession("sess-old", "user-1", "h1", time.Now().Add(-time.Hour)),
		makeTestSession("sess-new", "user-1", "h2", time.Now().Add(time.Hour)),
	}
	for _, sess := range sessions {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := s.GetSession(ctx, "sess-new"); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
