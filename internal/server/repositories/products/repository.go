// Package products declares the storage contract for catalog items.
package products

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// Repository stores products. Misses return common.ErrNotFound and name
// collisions return common.ErrDuplicateProduct.
type Repository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)

	// FindOwned returns the product only when adminID owns it.
	FindOwned(ctx context.Context, id, adminID string) (*models.Product, error)

	List(ctx context.Context) ([]*models.Product, error)

	// Update overwrites every mutable column of p.
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
}
