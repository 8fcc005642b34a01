package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
)

const selectColumns = `SELECT id, associated_admin_user_id, name, description, price, quantity, product_header_image, date_posted
		 FROM products`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.ID == "" {
		p.ID = models.NewID()
	}

	query :=
		`INSERT INTO products (id, associated_admin_user_id, name, description, price, quantity, product_header_image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING date_posted`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.AdminID, p.Name, p.Description, p.Price, p.Quantity, p.HeaderImageURL).Scan(&p.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}

	return p, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return scanOne(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	return scanOne(r.db.QueryRowContext(ctx, selectColumns+` WHERE name = $1`, name))
}

func (r *PostgresRepository) FindOwned(ctx context.Context, id, adminID string) (*models.Product, error) {
	return scanOne(r.db.QueryRowContext(ctx,
		selectColumns+` WHERE id = $1 AND associated_admin_user_id = $2`, id, adminID))
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY date_posted DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Product, 0)
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(&p.ID, &p.AdminID, &p.Name, &p.Description, &p.Price, &p.Quantity,
			&p.HeaderImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) error {
	query :=
		`UPDATE products
		 SET name = $2, description = $3, price = $4, quantity = $5, product_header_image = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.HeaderImageURL)
	if err != nil {
		return classify(err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func classify(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return common.ErrDuplicateProduct
	case dbx.IsForeignKeyViolation(err):
		return common.ErrForbidden
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanOne(row *sql.Row) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.AdminID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.HeaderImageURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
