package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	// RegisterUser creates a local account. Role may be customer or seller;
	// admin accounts are never created through registration.
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)

	// GetUser returns a single user by numeric ID.
	GetUser(ctx context.Context, id int64) (*User, error)

	// ListUsers returns every user. Admin surface.
	ListUsers(ctx context.Context) ([]User, error)

	// UpdateUser applies an admin edit to the given user. An admin may not
	// change their own role.
	UpdateUser(ctx context.Context, actor *User, id int64, req UpdateUserRequest) (*User, error)

	// DeleteUser removes a user. Admin surface.
	DeleteUser(ctx context.Context, id int64) error
}

// RegisterRequest holds the data for creating a local account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=customer seller"`
}

// UpdateUserRequest holds the admin-editable user fields. Nil fields are
// left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=2"`
	Phone    *string `json:"phone,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin customer seller"`
}
