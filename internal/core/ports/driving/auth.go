package driving

import (
	"context"

	"github.com/custodia-labs/corpus-core/internal/core/domain"
)

// AuthService authenticates the deployment operator and validates tokens.
type AuthService interface {
	// Authenticate checks the admin password and issues a bearer token.
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken parses and validates a bearer token.
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}
