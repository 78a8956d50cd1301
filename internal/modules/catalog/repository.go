package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("product not found")

// Repository defines the interface for product data storage.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)

	// Search matches name/category substrings; empty arguments are ignored.
	Search(ctx context.Context, name, category string) ([]Product, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Product, error)

	// ExistsByNameAndOwner reports whether the owner already listed a product
	// under this name.
	ExistsByNameAndOwner(ctx context.Context, name string, ownerID uuid.UUID) (bool, error)

	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
}
