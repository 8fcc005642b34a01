package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

const selectColumns = `id, username, email, password_hash, COALESCE(user_profile_image, ''), role, date_created`

// PostgresRepository stores principals of one kind in its own table.
type PostgresRepository struct {
	db    dbx.DBTX
	kind  models.Kind
	table string
}

// NewPostgresRepository binds a repository for kind to db.
func NewPostgresRepository(db dbx.DBTX, kind models.Kind) *PostgresRepository {
	return &PostgresRepository{db: db, kind: kind, table: tableFor(kind)}
}

func tableFor(kind models.Kind) string {
	if kind == models.KindAdmin {
		return "admin_users"
	}
	return "users"
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Principal) (*models.Principal, error) {
	if p.PasswordHash == "" {
		return nil, fmt.Errorf("%w: empty password hash", common.ErrValidation)
	}
	if p.ID == "" {
		p.ID = models.NewID()
	}
	p.Kind = r.kind
	p.Role = r.kind.Role()

	query := fmt.Sprintf(
		`INSERT INTO %s (id, username, email, password_hash, user_profile_image, role)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 RETURNING date_created`, r.table)

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Username, p.Email, p.PasswordHash, p.ProfileImageURL, p.Role).Scan(&p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Principal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE username = $1`, selectColumns, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Principal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, selectColumns, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Principal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, selectColumns, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Find(ctx context.Context, username, email string) (*models.Principal, error) {
	if username == "" && email == "" {
		return nil, common.ErrNotFound
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s
		 WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		 LIMIT 1`, selectColumns, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, username, email))
}

func (r *PostgresRepository) SetProfileImage(ctx context.Context, id, url string) error {
	query := fmt.Sprintf(`UPDATE %s SET user_profile_image = $2 WHERE id = $1`, r.table)
	return r.execOne(ctx, query, id, url)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Principal, error) {
	p := &models.Principal{Kind: r.kind}
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.ProfileImageURL, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
