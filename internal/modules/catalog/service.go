package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

var (
	ErrForbidden     = errors.New("you are not authorized to perform this action")
	ErrAlreadyExists = errors.New("you already created this product")
)

// Service defines the catalog business logic.
type Service interface {
	// CreateProduct lists a new product for the seller. Only sellers may list.
	CreateProduct(ctx context.Context, actor *user.User, req CreateProductRequest) (*Product, error)

	GetProduct(ctx context.Context, id int64) (*Product, error)

	// ListProducts returns the whole catalog. Admin surface.
	ListProducts(ctx context.Context) ([]Product, error)

	// SearchProducts filters by name/category substrings.
	SearchProducts(ctx context.Context, name, category string) ([]Product, error)

	// MyProducts returns the actor's own listings.
	MyProducts(ctx context.Context, actor *user.User) ([]Product, error)

	// UpdateProduct edits a listing. Owner or admin only.
	UpdateProduct(ctx context.Context, actor *user.User, id int64, req UpdateProductRequest) (*Product, error)

	// DeleteProduct removes a listing. Owner or admin only.
	DeleteProduct(ctx context.Context, actor *user.User, id int64) error
}

type service struct{ repo Repository }

// NewService creates a new catalog service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateProduct(ctx context.Context, actor *user.User, req CreateProductRequest) (*Product, error) {
	if actor.Role != user.RoleSeller {
		return nil, ErrForbidden
	}

	exists, err := s.repo.ExistsByNameAndOwner(ctx, req.Name, actor.UUID)
	if err != nil {
		return nil, fmt.Errorf("check existing product: %w", err)
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	p := &Product{
		OwnerID:     actor.UUID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("owner", actor.UUID.String()).Msg("catalog: failed to create product")
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("owner", actor.UUID.String()).Msg("product created")
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *service) SearchProducts(ctx context.Context, name, category string) ([]Product, error) {
	return s.repo.Search(ctx, name, category)
}

func (s *service) MyProducts(ctx context.Context, actor *user.User) ([]Product, error) {
	return s.repo.ListByOwner(ctx, actor.UUID)
}

func (s *service) UpdateProduct(ctx context.Context, actor *user.User, id int64, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, p); err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	if err := s.repo.Update(ctx, p); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("catalog: failed to update product")
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, actor *user.User, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(actor, p); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// authorizeOwner allows the product owner and admins through.
func authorizeOwner(actor *user.User, p *Product) error {
	if actor.Role == user.RoleAdmin || p.OwnerID == actor.UUID {
		return nil
	}
	return ErrForbidden
}
