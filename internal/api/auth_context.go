package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	sessionIDKey ctxKey = "sessionID"
)

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// getUserID returns the authenticated user ID or "" for anonymous requests.
func getUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// getSessionID returns the session of the access token used for the request.
func getSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}

// withUser stores the authenticated identity in context.
func withUser(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// RequireUser returns the authenticated user, fetching it from the auth service.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.GetUser(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("User not found")
	}
	return user, nil
}
