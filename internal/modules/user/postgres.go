package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (uuid, username, email, password_hash, phone, role, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		u.UUID, u.Username, u.Email, u.PasswordHash, u.Phone, u.Role, u.Provider, u.ProviderID,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, uuid, username, email, password_hash, phone, role, provider, provider_id
		FROM users WHERE id = $1`, id))
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, uuid, username, email, password_hash, phone, role, provider, provider_id
		FROM users WHERE email = $1`, email))
}

func (r *postgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uuid, username, email, password_hash, phone, role, provider, provider_id
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		var passwordHash, phone, provider, providerID sql.NullString
		if err := rows.Scan(&u.ID, &u.UUID, &u.Username, &u.Email,
			&passwordHash, &phone, &u.Role, &provider, &providerID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.PasswordHash = passwordHash.String
		u.Phone = phone.String
		u.Provider = provider.String
		u.ProviderID = providerID.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresRepository) Update(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, password_hash = $3, phone = $4, role = $5
		WHERE id = $6`,
		u.Username, u.Email, u.PasswordHash, u.Phone, u.Role, u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (r *postgresRepository) scanOne(row *sql.Row) (*User, error) {
	u := &User{}
	var passwordHash, phone, provider, providerID sql.NullString
	err := row.Scan(&u.ID, &u.UUID, &u.Username, &u.Email,
		&passwordHash, &phone, &u.Role, &provider, &providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.PasswordHash = passwordHash.String
	u.Phone = phone.String
	u.Provider = provider.String
	u.ProviderID = providerID.String
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
