package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/blob"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
)

// RoleChecker resolves a token subject to a principal with the required role.
// AuthService implements it.
type RoleChecker interface {
	RequireAdmin(ctx context.Context, subject string) (*models.Principal, error)
	RequireAuthenticated(ctx context.Context, subject string) (*models.Principal, error)
}

// CreateProductInput carries a new product. Image is required.
type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Quantity    int64
	Image       io.Reader
	ImageName   string
}

// UpdateProductInput carries a partial update. A nil Image keeps the current
// header image.
type UpdateProductInput struct {
	models.ProductPatch
	Image     io.Reader
	ImageName string
}

// ProductService manages the catalog. Every call re-checks the caller's role
// against the principal store.
type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	roles       RoleChecker
	uploader    blob.Uploader
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, roles RoleChecker, uploader blob.Uploader) *ProductService {
	return &ProductService{db: db, repomanager: m, roles: roles, uploader: uploader}
}

// Create adds a product owned by the calling admin.
func (s *ProductService) Create(ctx context.Context, subject string, in CreateProductInput) (*models.Product, error) {
	admin, err := s.roles.RequireAdmin(ctx, subject)
	if err != nil {
		return nil, err
	}

	if err := validateProduct(in.Name, in.Description, in.Price, in.Quantity); err != nil {
		return nil, err
	}
	if in.Image == nil {
		return nil, fmt.Errorf("%w: product header image is required", common.ErrValidation)
	}

	repo := s.repomanager.Products(s.db)
	if err := s.ensureNameFree(ctx, in.Name, ""); err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, in.ImageName, in.Image)
	if err != nil {
		return nil, err
	}

	p, err := repo.Create(ctx, &models.Product{
		AdminID:        admin.ID,
		Name:           in.Name,
		Description:    in.Description,
		Price:          in.Price,
		Quantity:       in.Quantity,
		HeaderImageURL: url,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}
	return p, nil
}

// List returns every product to any known principal.
func (s *ProductService) List(ctx context.Context, subject string) ([]*models.Product, error) {
	if _, err := s.roles.RequireAuthenticated(ctx, subject); err != nil {
		return nil, err
	}
	return s.list(ctx)
}

// ListAdmin returns every product to an admin.
func (s *ProductService) ListAdmin(ctx context.Context, subject string) ([]*models.Product, error) {
	if _, err := s.roles.RequireAdmin(ctx, subject); err != nil {
		return nil, err
	}
	return s.list(ctx)
}

func (s *ProductService) list(ctx context.Context) ([]*models.Product, error) {
	items, err := s.repomanager.Products(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return items, nil
}

// Get returns one product to any known principal.
func (s *ProductService) Get(ctx context.Context, subject, id string) (*models.Product, error) {
	if _, err := s.roles.RequireAuthenticated(ctx, subject); err != nil {
		return nil, err
	}
	return s.repomanager.Products(s.db).FindByID(ctx, id)
}

// GetAdmin returns one product to an admin.
func (s *ProductService) GetAdmin(ctx context.Context, subject, id string) (*models.Product, error) {
	if _, err := s.roles.RequireAdmin(ctx, subject); err != nil {
		return nil, err
	}
	return s.repomanager.Products(s.db).FindByID(ctx, id)
}

// Update applies a partial update to a product the calling admin owns.
// Products owned by someone else are reported as not found.
func (s *ProductService) Update(ctx context.Context, subject, id string, in UpdateProductInput) (*models.Product, error) {
	admin, err := s.roles.RequireAdmin(ctx, subject)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Products(s.db)
	p, err := repo.FindOwned(ctx, id, admin.ID)
	if err != nil {
		return nil, err
	}

	next := *p
	if in.Name != nil {
		next.Name = *in.Name
	}
	if in.Description != nil {
		next.Description = *in.Description
	}
	if in.Price != nil {
		next.Price = *in.Price
	}
	if in.Quantity != nil {
		next.Quantity = *in.Quantity
	}
	if err := validateProduct(next.Name, next.Description, next.Price, next.Quantity); err != nil {
		return nil, err
	}
	if next.Name != p.Name {
		if err := s.ensureNameFree(ctx, next.Name, p.ID); err != nil {
			return nil, err
		}
	}

	if in.Image != nil {
		url, err := s.uploader.Upload(ctx, in.ImageName, in.Image)
		if err != nil {
			return nil, err
		}
		next.HeaderImageURL = url
	}

	if err := repo.Update(ctx, &next); err != nil {
		if errors.Is(err, common.ErrDuplicateProduct) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating product: %w", err)
	}
	return &next, nil
}

// Delete removes a product the calling admin owns.
func (s *ProductService) Delete(ctx context.Context, subject, id string) error {
	admin, err := s.roles.RequireAdmin(ctx, subject)
	if err != nil {
		return err
	}

	repo := s.repomanager.Products(s.db)
	if _, err := repo.FindOwned(ctx, id, admin.ID); err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

func (s *ProductService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repomanager.Products(s.db).FindByName(ctx, name)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("error checking product name: %w", err)
	case existing.ID != selfID:
		return common.ErrDuplicateProduct
	}
	return nil
}

func validateProduct(name, description string, price, quantity int64) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: product name is required", common.ErrValidation)
	case quantity < 0:
		return fmt.Errorf("%w: quantity cannot be negative", common.ErrValidation)
	case price < 0:
		return fmt.Errorf("%w: price cannot be negative", common.ErrValidation)
	case utf8.RuneCountInString(description) > models.MaxDescriptionLength:
		return fmt.Errorf("%w: description longer than %d characters", common.ErrValidation, models.MaxDescriptionLength)
	}
	return nil
}
