package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limit := huma.Middlewares{s.rateLimit(s.authRateLimiter, byClientIP)}

	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates an account and signs it in. The first account becomes admin.",
		Tags:        []string{"Authentication"},
		Middlewares: limit,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
		Middlewares: limit,
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
		Middlewares: limit,
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the session of the access token",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// ClientHeaders identify the caller for session tracking.
type ClientHeaders struct {
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

func (h ClientHeaders) client() service.ClientInfo {
	return service.ClientInfo{
		IPAddress: extractIP(h.XForwardedFor, h.XRealIP),
		UserAgent: h.UserAgent,
	}
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email address"`
	Password string `json:"password" minLength:"8" maxLength:"1024" doc:"User password"`
	Name     string `json:"name,omitempty" maxLength:"100" doc:"Display name"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	ClientHeaders
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" maxLength:"254" doc:"User email"`
	Password string `json:"password" maxLength:"1024" doc:"User password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	ClientHeaders
	Body LoginRequest
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	ClientHeaders
	Body RefreshRequest
}

// UserResponse contains user information in auth responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Email       string    `json:"email" doc:"User email"`
	Name        string    `json:"name" doc:"Display name"`
	Role        string    `json:"role" doc:"admin or member"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	LastLoginAt time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Token expiry in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
		Client:   input.client(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Client:   input.client(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.RefreshTokens(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		Client:       input.client(),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}
	if err := s.services.Auth.Logout(ctx, getSessionID(ctx)); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUser(user)}, nil
}

// === Helpers ===

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         mapUser(resp.User),
	}
}

func mapUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.DisplayName(),
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
