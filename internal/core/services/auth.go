package services

import (
	"context"
	"time"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface.
// The deployment is single-operator: one admin password hash configured
// at startup, one identity in issued tokens.
type authService struct {
	authAdapter  driven.AuthAdapter
	passwordHash string
	tokenTTL     time.Duration
}

// NewAuthService creates a new AuthService. passwordHash is the bcrypt
// hash of the admin password from configuration.
func NewAuthService(authAdapter driven.AuthAdapter, passwordHash string) driving.AuthService {
	return &authService{
		authAdapter:  authAdapter,
		passwordHash: passwordHash,
		tokenTTL:     24 * time.Hour,
	}
}

// Authenticate checks the admin password and issues a bearer token
func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	if !s.authAdapter.VerifyPassword(req.Password, s.passwordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &domain.TokenClaims{
		Subject:   "admin",
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	token, err := s.authAdapter.GenerateToken(claims)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and validates a bearer token
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if claims.Expired() {
		return nil, domain.ErrTokenExpired
	}

	return claims, nil
}
