package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const (
	insertProduct = `INSERT INTO products (name, price, description)
VALUES ($1, $2, $3)
RETURNING id, name, price, description, created_at`

	findProductByID = `SELECT id, name, price, description, created_at FROM products WHERE id = $1`

	findProductByName = `SELECT id, name, price, description, created_at FROM products WHERE name = $1`

	findAllProducts = `SELECT id, name, price, description, created_at FROM products ORDER BY id`

	updateProductByID = `UPDATE products SET name = $2, price = $3, description = $4 WHERE id = $1`

	updateProductByName = `UPDATE products
SET name = $2,
    price = COALESCE($3, price),
    description = COALESCE($4, description)
WHERE name = $1`

	deleteProductByID = `DELETE FROM products WHERE id = $1`

	deleteProductByName = `DELETE FROM products WHERE name = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Insert adds a new product to the system.
// Returns ErrNameConstraint if the name is already taken.
func (p *PgStore) Insert(ctx context.Context, name string, price *float64, description *string) (*Product, error) {
	rows, err := p.db.Query(ctx, insertProduct, name, price, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translatePgError(err))
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translatePgError(err))
	}
	return &product, nil
}

// FindByID retrieves a product by its unique identifier.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	product, err := p.findOne(ctx, findProductByID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByName retrieves a product by its name.
func (p *PgStore) FindByName(ctx context.Context, name string) (*Product, error) {
	product, err := p.findOne(ctx, findProductByName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return product, nil
}

// FindAll retrieves all products ordered by ID.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, findAllProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// UpdateByID modifies an existing product's details.
func (p *PgStore) UpdateByID(ctx context.Context, id int64, name string, price *float64, description *string) (bool, error) {
	tag, err := p.db.Exec(ctx, updateProductByID, id, name, price, description)
	if err != nil {
		return false, fmt.Errorf("failed to update product by ID: %w", translatePgError(err))
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateByName renames a product, keeping price and description when they are nil.
func (p *PgStore) UpdateByName(ctx context.Context, oldName, newName string, price *float64, description *string) (bool, error) {
	tag, err := p.db.Exec(ctx, updateProductByName, oldName, newName, price, description)
	if err != nil {
		return false, fmt.Errorf("failed to update product by name: %w", translatePgError(err))
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByID removes a product by its unique identifier.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	tag, err := p.db.Exec(ctx, deleteProductByID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByName removes a product by its name.
func (p *PgStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	tag, err := p.db.Exec(ctx, deleteProductByName, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete product by name: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping checks the connection pool.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close closes the connection pool.
func (p *PgStore) Close() {
	p.db.Close()
}

func (p *PgStore) findOne(ctx context.Context, query string, arg any) (*Product, error) {
	rows, err := p.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// translatePgError maps a unique violation to ErrNameConstraint.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", perrors.ErrNameConstraint, pgErr.ConstraintName)
	}
	return err
}
