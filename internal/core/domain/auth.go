package domain

import "time"

// TokenClaims are the claims carried in an issued JWT.
// corpus-core runs single-operator: there is one admin identity per deployment.
type TokenClaims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Expired reports whether the claims are past their expiry.
func (c *TokenClaims) Expired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
