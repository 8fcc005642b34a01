// Package memory provides map-backed repositories that satisfy the same
// contracts as the PostgreSQL ones. It backs the handler and startup tests;
// the DBTX argument is ignored.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/principals"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
)

// RepositoryManager holds one store per principal kind plus the catalog.
type RepositoryManager struct {
	admins   *Principals
	users    *Principals
	products *Products
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{
		admins:   NewPrincipals(models.KindAdmin),
		users:    NewPrincipals(models.KindRegular),
		products: NewProducts(),
	}
}

// RunMigrations is a no-op.
func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Principals(_ dbx.DBTX, kind models.Kind) principals.Repository {
	if kind == models.KindAdmin {
		return m.admins
	}
	return m.users
}

func (m *RepositoryManager) Products(dbx.DBTX) products.Repository { return m.products }

// Principals is a map-backed principals.Repository.
type Principals struct {
	mu   sync.RWMutex
	kind models.Kind
	rows map[string]models.Principal
}

func NewPrincipals(kind models.Kind) *Principals {
	return &Principals{kind: kind, rows: make(map[string]models.Principal)}
}

func (r *Principals) find(match func(*models.Principal) bool) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if match(&p) {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *Principals) FindByUsername(_ context.Context, username string) (*models.Principal, error) {
	return r.find(func(p *models.Principal) bool { return p.Username == username })
}

func (r *Principals) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	return r.find(func(p *models.Principal) bool { return p.Email == email })
}

func (r *Principals) FindByID(_ context.Context, id string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *Principals) Find(_ context.Context, username, email string) (*models.Principal, error) {
	if username == "" && email == "" {
		return nil, common.ErrNotFound
	}
	return r.find(func(p *models.Principal) bool {
		return (username != "" && p.Username == username) || (email != "" && p.Email == email)
	})
}

func (r *Principals) Create(_ context.Context, p *models.Principal) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.PasswordHash == "" {
		return nil, common.ErrValidation
	}
	for _, e := range r.rows {
		if e.Username == p.Username || e.Email == p.Email {
			return nil, common.ErrDuplicateIdentity
		}
	}
	if p.ID == "" {
		p.ID = models.NewID()
	}
	p.Kind = r.kind
	p.Role = r.kind.Role()
	p.CreatedAt = time.Now().UTC()
	r.rows[p.ID] = *p
	return p, nil
}

func (r *Principals) SetProfileImage(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	p.ProfileImageURL = url
	r.rows[id] = p
	return nil
}

func (r *Principals) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// Products is a map-backed products.Repository.
type Products struct {
	mu   sync.RWMutex
	rows map[string]models.Product
}

func NewProducts() *Products {
	return &Products{rows: make(map[string]models.Product)}
}

func (r *Products) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.Name == p.Name {
			return nil, common.ErrDuplicateProduct
		}
	}
	if p.ID == "" {
		p.ID = models.NewID()
	}
	p.CreatedAt = time.Now().UTC()
	r.rows[p.ID] = *p
	return p, nil
}

func (r *Products) find(match func(*models.Product) bool) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if match(&p) {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *Products) FindByID(_ context.Context, id string) (*models.Product, error) {
	return r.find(func(p *models.Product) bool { return p.ID == id })
}

func (r *Products) FindByName(_ context.Context, name string) (*models.Product, error) {
	return r.find(func(p *models.Product) bool { return p.Name == name })
}

func (r *Products) FindOwned(_ context.Context, id, adminID string) (*models.Product, error) {
	return r.find(func(p *models.Product) bool { return p.ID == id && p.AdminID == adminID })
}

// List returns products newest first, like the SQL implementation.
func (r *Products) List(_ context.Context) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Product, 0, len(r.rows))
	for _, p := range r.rows {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Products) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return common.ErrNotFound
	}
	for id, e := range r.rows {
		if id != p.ID && e.Name == p.Name {
			return common.ErrDuplicateProduct
		}
	}
	r.rows[p.ID] = *p
	return nil
}

func (r *Products) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
