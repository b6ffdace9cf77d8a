package store

import (
	"context"
	"errors"
	"fmt"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"gorm.io/gorm"
)

// GormStore implements ProductStore on top of GORM. It is used with the SQLite driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store and makes sure the products table exists.
// The *gorm.DB must be opened with TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Insert saves a new product to the database.
func (g *GormStore) Insert(ctx context.Context, name string, price *float64, description *string) (*Product, error) {
	product := Product{
		Name:        name,
		Price:       price,
		Description: description,
	}
	if err := g.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translateGormError(err))
	}
	return &product, nil
}

// FindByID retrieves a product by its ID.
func (g *GormStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	product, err := g.take(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByName retrieves a product by its name.
func (g *GormStore) FindByName(ctx context.Context, name string) (*Product, error) {
	product, err := g.take(ctx, "name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}
	return product, nil
}

// FindAll retrieves all products ordered by ID.
func (g *GormStore) FindAll(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	if err := g.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// UpdateByID replaces name, price and description; nil price or description are stored as NULL.
func (g *GormStore) UpdateByID(ctx context.Context, id int64, name string, price *float64, description *string) (bool, error) {
	result := g.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        name,
			"price":       price,
			"description": description,
		})
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to update product by ID: %w", translateGormError(err))
	}
	return result.RowsAffected > 0, nil
}

// UpdateByName renames a product and changes only the supplied fields.
func (g *GormStore) UpdateByName(ctx context.Context, oldName, newName string, price *float64, description *string) (bool, error) {
	changes := map[string]any{"name": newName}
	if price != nil {
		changes["price"] = *price
	}
	if description != nil {
		changes["description"] = *description
	}
	result := g.db.WithContext(ctx).
		Model(&Product{}).
		Where("name = ?", oldName).
		Updates(changes)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to update product by name: %w", translateGormError(err))
	}
	return result.RowsAffected > 0, nil
}

// DeleteByID permanently removes a product by ID.
func (g *GormStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	result := g.db.WithContext(ctx).Delete(&Product{}, "id = ?", id)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// DeleteByName permanently removes a product by name.
func (g *GormStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	result := g.db.WithContext(ctx).Delete(&Product{}, "name = ?", name)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to delete product by name: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// Ping checks the underlying database connection.
func (g *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database connection.
func (g *GormStore) Close() {
	if sqlDB, err := g.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (g *GormStore) take(ctx context.Context, query string, arg any) (*Product, error) {
	var product Product
	if err := g.db.WithContext(ctx).Where(query, arg).Take(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func translateGormError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", perrors.ErrNameConstraint, err)
	}
	return err
}
