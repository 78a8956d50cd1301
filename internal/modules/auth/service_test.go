package auth_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/witchakorn/marketgo-backend/internal/modules/auth"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret = []byte("test-secret")

type mockUserRepo struct {
	user.Repository
	getByEmailFunc func(ctx context.Context, email string) (*user.User, error)
	getByIDFunc    func(ctx context.Context, id int64) (*user.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return m.getByIDFunc(ctx, id)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLogin(t *testing.T) {
	password := "correct horse battery"
	account := &user.User{
		ID:           7,
		UUID:         uuid.New(),
		Email:        "somsak@example.com",
		PasswordHash: "",
		Role:         user.RoleCustomer,
	}

	t.Run("returns_signed_token", func(t *testing.T) {
		u := *account
		u.PasswordHash = hashOf(t, password)
		repo := &mockUserRepo{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				require.Equal(t, u.Email, email)
				return &u, nil
			},
		}
		svc := auth.NewService(repo, jwtSecret)

		token, got, err := svc.Login(context.Background(), u.Email, password)
		require.NoError(t, err)
		assert.Equal(t, &u, got)

		claims := &jwt.StandardClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, strconv.FormatInt(u.ID, 10), claims.Subject)
		assert.Greater(t, claims.ExpiresAt, claims.IssuedAt)
	})

	t.Run("wrong_password", func(t *testing.T) {
		u := *account
		u.PasswordHash = hashOf(t, password)
		repo := &mockUserRepo{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return &u, nil
			},
		}
		svc := auth.NewService(repo, jwtSecret)

		_, _, err := svc.Login(context.Background(), u.Email, "guess")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown_email", func(t *testing.T) {
		repo := &mockUserRepo{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return nil, user.ErrNotFound
			},
		}
		svc := auth.NewService(repo, jwtSecret)

		_, _, err := svc.Login(context.Background(), "nobody@example.com", password)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("social_account_has_no_password", func(t *testing.T) {
		u := *account
		repo := &mockUserRepo{
			getByEmailFunc: func(ctx context.Context, email string) (*user.User, error) {
				return &u, nil
			},
		}
		svc := auth.NewService(repo, jwtSecret)

		_, _, err := svc.Login(context.Background(), u.Email, password)
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}
