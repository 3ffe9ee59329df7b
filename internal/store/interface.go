// Package store defines the persistence interface for the EchoVerse server.
package store

import (
	"context"
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
)

// DefaultListLimit is used when a caller passes a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps list queries.
const MaxListLimit = 500

// Store defines all persistence operations.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// History
	CreateHistory(ctx context.Context, h *domain.History) error
	GetHistory(ctx context.Context, id string) (*domain.History, error)
	UpdateHistory(ctx context.Context, h *domain.History) error
	DeleteHistory(ctx context.Context, id string) error
	ListHistory(ctx context.Context, userID string, limit int) ([]*domain.History, error)
	ListAllHistory(ctx context.Context) ([]*domain.History, error)

	// Downloads
	CreateDownload(ctx context.Context, d *domain.Download) error
	GetDownload(ctx context.Context, id string) (*domain.Download, error)
	ListDownloads(ctx context.Context, userID string, limit int) ([]*domain.Download, error)
	ListDownloadsByHistory(ctx context.Context, historyID string) ([]*domain.Download, error)
	RecordDownload(ctx context.Context, id string, at time.Time) error
	DeleteDownload(ctx context.Context, id string) error
}

// ClampLimit applies DefaultListLimit and MaxListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
