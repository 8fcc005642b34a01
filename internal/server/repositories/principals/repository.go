// Package principals declares the storage contract for authenticating
// accounts. One repository instance serves one namespace (admins or regular
// users); the namespaces never share rows or uniqueness.
package principals

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

// Repository defines lookups and writes on a single principal namespace.
// Lookups that match nothing return common.ErrNotFound; writes that break
// username or email uniqueness return common.ErrDuplicateIdentity.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	FindByID(ctx context.Context, id string) (*models.Principal, error)

	// Find returns any principal whose username or email matches. An empty
	// argument does not constrain the match.
	Find(ctx context.Context, username, email string) (*models.Principal, error)

	// Create inserts p, assigning ID when empty, and fills CreatedAt and Role.
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)

	SetProfileImage(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}
