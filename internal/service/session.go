package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/id"
	"github.com/echoverse/echoverse-server/internal/store"
)

// DefaultSessionCleanupInterval is how often expired sessions are purged.
const DefaultSessionCleanupInterval = time.Hour

// SessionService handles user session management and lifecycle.
type SessionService struct {
	store  store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(store store.Store, tokens *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until access token expires
	SessionID    string `json:"session_id"`
}

// CreateSession generates tokens and persists a new session for user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, client ClientInfo) (*SessionResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokens.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return s.response(sessionID, accessToken, refreshToken), nil
}

// RefreshSession rotates tokens for an existing session. The old refresh token
// stops working.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string, client ClientInfo) (*SessionResponse, *domain.User, error) {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		// User was deleted, clean up session
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user, session.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}
	newRefreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, nil, err
	}

	session.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	session.Touch()
	if client.IPAddress != "" {
		session.IPAddress = client.IPAddress
	}
	if client.UserAgent != "" {
		session.UserAgent = client.UserAgent
	}
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("update session: %w", err)
	}

	return s.response(session.ID, accessToken, newRefreshToken), user, nil
}

// ActiveSession returns the session if it exists and has not expired.
func (s *SessionService) ActiveSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("session has been revoked")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired(time.Now()) {
		return nil, domainerrors.TokenExpired("session has expired")
	}
	return session, nil
}

// DeleteSession ends a session (logout). Deleting a missing session is not an error.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}
	return count, nil
}

// RunCleanup purges expired sessions every interval until ctx is cancelled.
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSessionCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpiredSessions(ctx); err != nil {
				s.logger.Error("Session cleanup failed", "error", err)
			}
		}
	}
}

func (s *SessionService) response(sessionID, accessToken, refreshToken string) *SessionResponse {
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}
}
