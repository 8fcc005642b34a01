package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/principals"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/products"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// --- principals ---

type memPrincipals struct {
	mu   sync.Mutex
	kind models.Kind
	rows map[string]*models.Principal

	findErr     error
	createErr   error
	setImageErr error
}

func newMemPrincipals(kind models.Kind) *memPrincipals {
	return &memPrincipals{kind: kind, rows: map[string]*models.Principal{}}
}

func (r *memPrincipals) first(match func(*models.Principal) bool) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.rows {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memPrincipals) FindByUsername(_ context.Context, username string) (*models.Principal, error) {
	return r.first(func(p *models.Principal) bool { return p.Username == username })
}

func (r *memPrincipals) FindByEmail(_ context.Context, email string) (*models.Principal, error) {
	return r.first(func(p *models.Principal) bool { return p.Email == email })
}

func (r *memPrincipals) FindByID(_ context.Context, id string) (*models.Principal, error) {
	return r.first(func(p *models.Principal) bool { return p.ID == id })
}

func (r *memPrincipals) Find(_ context.Context, username, email string) (*models.Principal, error) {
	return r.first(func(p *models.Principal) bool {
		return (username != "" && p.Username == username) || (email != "" && p.Email == email)
	})
}

func (r *memPrincipals) Create(_ context.Context, p *models.Principal) (*models.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
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
	p.CreatedAt = time.Now()
	cp := *p
	r.rows[p.ID] = &cp
	return p, nil
}

func (r *memPrincipals) SetProfileImage(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setImageErr != nil {
		return r.setImageErr
	}
	p, ok := r.rows[id]
	if !ok {
		return common.ErrNotFound
	}
	p.ProfileImageURL = url
	return nil
}

func (r *memPrincipals) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memPrincipals) add(p *models.Principal) *models.Principal {
	if _, err := r.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

// --- products ---

type memProducts struct {
	mu   sync.Mutex
	rows map[string]*models.Product

	listErr   error
	updateErr error
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[string]*models.Product{}}
}

func (r *memProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
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
	p.CreatedAt = time.Now()
	cp := *p
	r.rows[p.ID] = &cp
	return p, nil
}

func (r *memProducts) get(match func(*models.Product) bool) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	return r.get(func(p *models.Product) bool { return p.ID == id })
}

func (r *memProducts) FindByName(_ context.Context, name string) (*models.Product, error) {
	return r.get(func(p *models.Product) bool { return p.Name == name })
}

func (r *memProducts) FindOwned(_ context.Context, id, adminID string) (*models.Product, error) {
	return r.get(func(p *models.Product) bool { return p.ID == id && p.AdminID == adminID })
}

func (r *memProducts) List(_ context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Product, 0, len(r.rows))
	for _, p := range r.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProducts) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.rows[p.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- manager ---

type fakeRepoManager struct {
	admins   *memPrincipals
	users    *memPrincipals
	products *memProducts
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		admins:   newMemPrincipals(models.KindAdmin),
		users:    newMemPrincipals(models.KindRegular),
		products: newMemProducts(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Principals(_ dbx.DBTX, kind models.Kind) principals.Repository {
	if kind == models.KindAdmin {
		return m.admins
	}
	return m.users
}

func (m *fakeRepoManager) Products(dbx.DBTX) products.Repository { return m.products }

// --- uploader ---

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, filename string, body io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, filename)
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	return "http://cdn.test/bucket/images/" + filename, nil
}
