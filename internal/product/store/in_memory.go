package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
)

// inMemory implements ProductStore using an in-memory map.
type inMemory struct {
	mu       sync.RWMutex
	products map[int64]Product
	byName   map[string]int64
	nextID   int64
}

// NewInMemoryStore creates a new instance of ProductStore
func NewInMemoryStore() ProductStore {
	return &inMemory{
		products: make(map[int64]Product),
		byName:   make(map[string]int64),
		nextID:   1,
	}
}

// Insert creates a new product and returns it.
func (s *inMemory) Insert(_ context.Context, name string, price *float64, description *string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[name]; taken {
		return nil, fmt.Errorf("failed to create product: %w", perrors.ErrNameConstraint)
	}
	product := Product{
		ID:          s.nextID,
		Name:        name,
		Price:       clonePtr(price),
		Description: clonePtr(description),
		CreatedAt:   time.Now().UTC(),
	}
	s.nextID++
	s.products[product.ID] = product
	s.byName[name] = product.ID

	return cloneProduct(product), nil
}

// FindByID retrieves a product by its ID.
func (s *inMemory) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(t), nil
}

// FindByName retrieves a product by its name.
func (s *inMemory) FindByName(_ context.Context, name string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	return cloneProduct(s.products[id]), nil
}

// FindAll retrieves all products ordered by ID.
func (s *inMemory) FindAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, t := range s.products {
		list = append(list, *cloneProduct(t))
	}
	slices.SortFunc(list, func(a, b Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return list, nil
}

// UpdateByID replaces the mutable fields of a product.
func (s *inMemory) UpdateByID(_ context.Context, id int64, name string, price *float64, description *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[id]
	if !ok {
		return false, nil
	}
	if err := s.rename(&product, name); err != nil {
		return false, fmt.Errorf("failed to update product by ID: %w", err)
	}
	product.Price = clonePtr(price)
	product.Description = clonePtr(description)
	s.products[id] = product
	return true, nil
}

// UpdateByName renames a product and changes only the supplied fields.
func (s *inMemory) UpdateByName(_ context.Context, oldName, newName string, price *float64, description *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[oldName]
	if !ok {
		return false, nil
	}
	product := s.products[id]
	if err := s.rename(&product, newName); err != nil {
		return false, fmt.Errorf("failed to update product by name: %w", err)
	}
	if price != nil {
		product.Price = clonePtr(price)
	}
	if description != nil {
		product.Description = clonePtr(description)
	}
	s.products[id] = product
	return true, nil
}

// DeleteByID deletes a product by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[id]
	if !exists {
		return false, nil
	}
	delete(s.products, id)
	delete(s.byName, product.Name)
	return true, nil
}

// DeleteByName deletes a product by its name.
func (s *inMemory) DeleteByName(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byName[name]
	if !exists {
		return false, nil
	}
	delete(s.products, id)
	delete(s.byName, name)
	return true, nil
}

func (s *inMemory) Ping(_ context.Context) error {
	return nil
}

func (s *inMemory) Close() {}

// rename moves the name index entry; callers must hold the write lock.
func (s *inMemory) rename(product *Product, newName string) error {
	if newName == product.Name {
		return nil
	}
	if _, taken := s.byName[newName]; taken {
		return perrors.ErrNameConstraint
	}
	delete(s.byName, product.Name)
	s.byName[newName] = product.ID
	product.Name = newName
	return nil
}

func cloneProduct(p Product) *Product {
	p.Price = clonePtr(p.Price)
	p.Description = clonePtr(p.Description)
	return &p
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
