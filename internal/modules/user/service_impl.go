package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var ErrCannotChangeOwnRole = errors.New("admin cannot change their own role")

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	role := Role(req.Role)
	if req.Role == "" {
		role = RoleCustomer
	}
	// Registration never grants admin; the request schema already limits the
	// field to customer/seller, this is the backstop.
	if role == RoleAdmin || !role.Valid() {
		role = RoleCustomer
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("user: failed to hash password")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		UUID:         uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         role,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Str("email", req.Email).Msg("user: failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Int64("user_id", u.ID).Str("role", u.Role.String()).Msg("user registered")
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateUser(ctx context.Context, actor *User, id int64, req UpdateUserRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Role != nil && Role(*req.Role) != u.Role {
		if actor.ID == u.ID {
			return nil, ErrCannotChangeOwnRole
		}
		u.Role = Role(*req.Role)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("user: failed to update user")
		return nil, err
	}
	return u, nil
}

func (s *service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
