package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest carries credentials plus the request metadata handlers
// capture for the audit trail.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RefreshTokenRequest exchanges a rotating refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// TokenPair is the credential set issued on login and on every refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// LoginResponse bundles the issued tokens with the signed-in user.
type LoginResponse struct {
	TokenPair
	User UserInfo `json:"user"`
}

// RefreshTokenResponse returns only the rotated tokens.
type RefreshTokenResponse struct {
	TokenPair
}

// UserInfo is the public shape of a user in API responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

// JWTClaims is the access token payload.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
