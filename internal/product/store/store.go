// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"
)

// Product represents a product row.
type Product struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement"`
	Name        string    `db:"name"        gorm:"not null;uniqueIndex"`
	Price       *float64  `db:"price"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"  gorm:"autoCreateTime"`
}

// TableName returns the table name for Product model.
func (Product) TableName() string {
	return "products"
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Lookups return a nil product and a nil error when nothing matches.
type ProductStore interface {
	// Insert adds a new product.
	// Returns ErrNameConstraint if a product with the same name already exists.
	Insert(ctx context.Context, name string, price *float64, description *string) (*Product, error)

	// FindByID retrieves a single product by its unique identifier.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindByName retrieves a single product by its exact name.
	FindByName(ctx context.Context, name string) (*Product, error)

	// FindAll returns all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]Product, error)

	// UpdateByID replaces name, price and description of the product with the given ID.
	// Returns false if no product exists with the given ID.
	UpdateByID(ctx context.Context, id int64, name string, price *float64, description *string) (bool, error)

	// UpdateByName renames the product and changes price and description when they are not nil.
	// Returns false if no product exists with the old name.
	UpdateByName(ctx context.Context, oldName, newName string, price *float64, description *string) (bool, error)

	// DeleteByID removes a product by its ID.
	// Returns false if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int64) (bool, error)

	// DeleteByName removes a product by its name.
	// Returns false if no product exists with the given name.
	DeleteByName(ctx context.Context, name string) (bool, error)

	// Ping verifies the underlying storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying storage handle.
	Close()
}
