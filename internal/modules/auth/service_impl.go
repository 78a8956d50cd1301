package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog/log"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type service struct {
	userRepo  user.Repository
	jwtSecret []byte
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, jwtSecret []byte) Service {
	return &service{userRepo: userRepo, jwtSecret: jwtSecret}
}

func (s *service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	// Social-login accounts carry no local password.
	if u.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	claims := &jwt.StandardClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("auth: failed to sign token")
		return "", nil, err
	}

	return signed, u, nil
}
