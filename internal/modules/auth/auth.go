package auth

import (
	"context"
	"errors"

	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login verifies the credentials and returns a signed JWT plus the user.
	Login(ctx context.Context, email, password string) (string, *user.User, error)
}
