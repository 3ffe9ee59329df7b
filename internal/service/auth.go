package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/id"
	"github.com/echoverse/echoverse-server/internal/store"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// AuthService handles registration, login, and token verification.
// Session management is delegated to SessionService.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	sessions  *SessionService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	sessions *SessionService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
}

// ClientInfo identifies the caller of an auth request. Filled in by handlers.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email    string     `json:"email" validate:"required,email,max=254"`
	Password string     `json:"password" validate:"required,min=8,max=1024"`
	Name     string     `json:"name" validate:"max=100"`
	Client   ClientInfo `json:"-"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required"`
	Client   ClientInfo `json:"-"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string     `json:"refresh_token" validate:"required"`
	Client       ClientInfo `json:"-"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates an account and signs it in. The first account becomes admin.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	role := domain.RoleMember
	if count == 0 {
		role = domain.RoleAdmin
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)

	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	user.LastLoginAt = time.Now()
	user.UpdatedAt = user.LastLoginAt
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("Failed to update last login time", "user_id", user.ID, "error", err)
	}

	session, err := s.sessions.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// RefreshTokens rotates the refresh token and issues a new access token.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	session, user, err := s.sessions.RefreshSession(ctx, req.RefreshToken, req.Client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *session}, nil
}

// Logout revokes a session. Access tokens bound to it stop verifying.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token, its session, and returns the user.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	if claims.SessionID != "" {
		if _, err := s.sessions.ActiveSession(ctx, claims.SessionID); err != nil {
			return nil, nil, err
		}
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// GetUser returns a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
