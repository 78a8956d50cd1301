package user

import (
	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold. Authorization logic
// switches on it exhaustively; anything outside the set is denied.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleSeller:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User represents a user in the system. The numeric ID is the primary key;
// UUID is the immutable external identifier that products and orders
// reference for ownership.
type User struct {
	ID           int64     `json:"id"`
	UUID         uuid.UUID `json:"uuid"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	Provider     string    `json:"provider,omitempty"`
	ProviderID   string    `json:"-"`
}
