package auth

import (
	"time"
)

// AccessClaims are the claims carried in an encrypted v4.local access token.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// IsAdmin reports whether the token was issued to an admin.
func (c *AccessClaims) IsAdmin() bool {
	return c.Role == "admin"
}
