// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/abgdnv/productcatalog/internal/product/store"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
// A nil result with a nil error means the product does not exist.
type ProductService interface {
	// CreateProduct adds a new product to the system.
	// Returns ErrDuplicateName if a product with the same name already exists.
	CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// GetProductByID retrieves a single product by its unique identifier.
	GetProductByID(ctx context.Context, id int64) (*ProductDto, error)

	// GetProductByName retrieves a single product by its name.
	GetProductByName(ctx context.Context, name string) (*ProductDto, error)

	// GetAllProducts returns all products in creation order.
	// Returns an empty slice if no products exist.
	GetAllProducts(ctx context.Context) ([]ProductDto, error)

	// UpdateProductByID replaces name, price and description of a product.
	UpdateProductByID(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error)

	// UpdateProductByName renames a product; price and description change only when supplied.
	UpdateProductByName(ctx context.Context, oldName string, product ProductUpdateDto) (*ProductNameDto, error)

	// DeleteProductByID removes a product by its ID.
	// Returns false if no product exists with the given ID.
	DeleteProductByID(ctx context.Context, id int64) (bool, error)

	// DeleteProductByName removes a product by its name.
	// Returns false if no product exists with the given name.
	DeleteProductByName(ctx context.Context, name string) (bool, error)
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository store.ProductStore
}

// NewService creates a new instance of ProductService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return &Service{
		repository: repo,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string   `json:"name"        validate:"required"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
	Description *string  `json:"description"`
}

// ProductUpdateDto represents the data transfer object for updating a product.
type ProductUpdateDto struct {
	Name        string   `json:"name"        validate:"required"`
	Price       *float64 `json:"price"       validate:"omitempty,gt=0"`
	Description *string  `json:"description"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Price       *float64   `json:"price"`
	Description *string    `json:"description"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// ProductNameDto is returned by an update by name.
type ProductNameDto struct {
	Name string `json:"name"`
}

// CreateProduct checks the name is free and inserts the product.
// A concurrent insert that wins the race is reported as ErrDuplicateName as well.
func (s *Service) CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	existing, err := s.repository.FindByName(ctx, product.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name %q: %w", product.Name, err)
	}
	if existing != nil {
		return nil, perrors.ErrDuplicateName
	}

	p, err := s.repository.Insert(ctx, product.Name, product.Price, product.Description)
	if err != nil {
		if errors.Is(err, perrors.ErrNameConstraint) {
			return nil, fmt.Errorf("%w: %v", perrors.ErrDuplicateName, err)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return toDto(p), nil
}

// GetProductByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) GetProductByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	if product == nil {
		return nil, nil
	}
	return toDto(product), nil
}

// GetProductByName retrieves a product by its name and returns it as a ProductDto.
func (s *Service) GetProductByName(ctx context.Context, name string) (*ProductDto, error) {
	product, err := s.repository.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by name %q: %w", name, err)
	}
	if product == nil {
		return nil, nil
	}
	return toDto(product), nil
}

// GetAllProducts retrieves a list of all products and returns them as ProductDTOs.
func (s *Service) GetAllProducts(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))

	for i, item := range products {
		productDTOs[i] = *toDto(&item)
	}

	return productDTOs, nil
}

// UpdateProductByID updates a product and echoes the submitted fields back.
func (s *Service) UpdateProductByID(ctx context.Context, id int64, product ProductUpdateDto) (*ProductDto, error) {
	changed, err := s.repository.UpdateByID(ctx, id, product.Name, product.Price, product.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	if !changed {
		return nil, nil
	}
	return &ProductDto{
		ID:          id,
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
	}, nil
}

// UpdateProductByName renames a product and returns its new name.
func (s *Service) UpdateProductByName(ctx context.Context, oldName string, product ProductUpdateDto) (*ProductNameDto, error) {
	changed, err := s.repository.UpdateByName(ctx, oldName, product.Name, product.Price, product.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %q: %w", oldName, err)
	}
	if !changed {
		return nil, nil
	}
	return &ProductNameDto{Name: product.Name}, nil
}

// DeleteProductByID deletes a product by its ID.
func (s *Service) DeleteProductByID(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return deleted, nil
}

// DeleteProductByName deletes a product by its name.
func (s *Service) DeleteProductByName(ctx context.Context, name string) (bool, error) {
	deleted, err := s.repository.DeleteByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete product %q: %w", name, err)
	}
	return deleted, nil
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	createdAt := product.CreatedAt
	return &ProductDto{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Description: product.Description,
		CreatedAt:   &createdAt,
	}
}
