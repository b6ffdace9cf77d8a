package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

// storeContractSuite holds the behaviour every ProductStore implementation must share.
// Embedding suites assign a fresh, empty store in SetupTest.
type storeContractSuite struct {
	suite.Suite
	ctx   context.Context
	store ProductStore
}

func ptr[T any](v T) *T { return &v }

// createTestProduct is a helper function to create a product for testing purposes.
func (s *storeContractSuite) createTestProduct(name string, price *float64, description *string) *Product {
	s.T().Helper()
	product, err := s.store.Insert(s.ctx, name, price, description)
	require.NoError(s.T(), err, "createTestProduct helper failed to create product")
	return product
}

func (s *storeContractSuite) TestInsertAndFind() {
	// 1. Create a new product
	created := s.createTestProduct("Apple Iphone 15 Pro", ptr(599.0), ptr("Phone"))

	// 2. Check that the product was created successfully
	require.NotZero(s.T(), created.ID, "Created product ID should not be zero")
	require.Equal(s.T(), "Apple Iphone 15 Pro", created.Name)
	require.Equal(s.T(), ptr(599.0), created.Price)
	require.Equal(s.T(), ptr("Phone"), created.Description)
	require.False(s.T(), created.CreatedAt.IsZero(), "CreatedAt should be set")

	// 3. Fetch the product by ID and by name
	byID, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	byName, err := s.store.FindByName(s.ctx, created.Name)
	require.NoError(s.T(), err)

	// 4. Check that the fetched products match the created product
	for _, fetched := range []*Product{byID, byName} {
		require.NotNil(s.T(), fetched)
		assert.Equal(s.T(), created.ID, fetched.ID)
		assert.Equal(s.T(), created.Name, fetched.Name)
		assert.Equal(s.T(), created.Price, fetched.Price)
		assert.Equal(s.T(), created.Description, fetched.Description)
		assert.WithinDuration(s.T(), created.CreatedAt, fetched.CreatedAt, time.Second)
	}
}

func (s *storeContractSuite) TestInsert_NullableFields() {
	created := s.createTestProduct("Bare", nil, nil)

	fetched, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), fetched)
	assert.Nil(s.T(), fetched.Price)
	assert.Nil(s.T(), fetched.Description)
}

func (s *storeContractSuite) TestInsert_DuplicateName() {
	s.createTestProduct("Unique", nil, nil)

	_, err := s.store.Insert(s.ctx, "Unique", ptr(1.0), nil)
	require.ErrorIs(s.T(), err, perrors.ErrNameConstraint)

	all, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1, "exactly one row should exist")
}

func (s *storeContractSuite) TestFind_NotFound() {
	byID, err := s.store.FindByID(s.ctx, 424242)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), byID)

	byName, err := s.store.FindByName(s.ctx, "missing")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), byName)
}

func (s *storeContractSuite) TestFindAll() {
	empty, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), empty, "empty store should return an empty slice")
	assert.Empty(s.T(), empty)

	first := s.createTestProduct("Product B", nil, nil)
	second := s.createTestProduct("Product A", nil, nil)

	products, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), products, 2, "Should retrieve 2 products")
	assert.Equal(s.T(), first.ID, products[0].ID, "products are returned in creation order")
	assert.Equal(s.T(), second.ID, products[1].ID)
}

func (s *storeContractSuite) TestUpdateByID_ReplacesAllFields() {
	created := s.createTestProduct("Samsung Galaxy S23", ptr(699.0), ptr("Phone"))

	changed, err := s.store.UpdateByID(s.ctx, created.ID, "Samsung Galaxy S23 Ultra", ptr(799.0), nil)
	require.NoError(s.T(), err)
	require.True(s.T(), changed)

	fetched, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), fetched)
	assert.Equal(s.T(), "Samsung Galaxy S23 Ultra", fetched.Name)
	assert.Equal(s.T(), ptr(799.0), fetched.Price)
	assert.Nil(s.T(), fetched.Description, "absent description is stored as NULL")

	old, err := s.store.FindByName(s.ctx, "Samsung Galaxy S23")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), old, "old name must no longer resolve")
}

func (s *storeContractSuite) TestUpdateByID_SameName() {
	created := s.createTestProduct("Same", ptr(1.0), nil)

	changed, err := s.store.UpdateByID(s.ctx, created.ID, "Same", ptr(2.0), nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), changed)
}

func (s *storeContractSuite) TestUpdateByName_KeepsUnsuppliedFields() {
	s.createTestProduct("Google Pixel 8", ptr(599.0), ptr("Phone"))

	changed, err := s.store.UpdateByName(s.ctx, "Google Pixel 8", "Google Pixel 8 Pro", nil, nil)
	require.NoError(s.T(), err)
	require.True(s.T(), changed)

	fetched, err := s.store.FindByName(s.ctx, "Google Pixel 8 Pro")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), fetched)
	assert.Equal(s.T(), ptr(599.0), fetched.Price)
	assert.Equal(s.T(), ptr("Phone"), fetched.Description)

	changed, err = s.store.UpdateByName(s.ctx, "Google Pixel 8 Pro", "Google Pixel 8 Pro", ptr(699.0), ptr("Flagship"))
	require.NoError(s.T(), err)
	require.True(s.T(), changed)

	fetched, err = s.store.FindByName(s.ctx, "Google Pixel 8 Pro")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), fetched)
	assert.Equal(s.T(), ptr(699.0), fetched.Price)
	assert.Equal(s.T(), ptr("Flagship"), fetched.Description)
}

func (s *storeContractSuite) TestUpdate_NameTaken() {
	first := s.createTestProduct("First", nil, nil)
	s.createTestProduct("Second", nil, nil)

	_, err := s.store.UpdateByID(s.ctx, first.ID, "Second", nil, nil)
	require.ErrorIs(s.T(), err, perrors.ErrNameConstraint)

	_, err = s.store.UpdateByName(s.ctx, "First", "Second", nil, nil)
	require.ErrorIs(s.T(), err, perrors.ErrNameConstraint)

	fetched, err := s.store.FindByID(s.ctx, first.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), fetched)
	assert.Equal(s.T(), "First", fetched.Name)
}

func (s *storeContractSuite) TestUpdate_NotFound() {
	changed, err := s.store.UpdateByID(s.ctx, 424242, "Nothing", nil, nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), changed)

	changed, err = s.store.UpdateByName(s.ctx, "missing", "Nothing", nil, nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), changed)
}

func (s *storeContractSuite) TestDeleteByID() {
	created := s.createTestProduct("OnePlus 11", nil, nil)

	deleted, err := s.store.DeleteByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.True(s.T(), deleted)

	fetched, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), fetched)

	deleted, err = s.store.DeleteByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), deleted, "second delete finds nothing")
}

func (s *storeContractSuite) TestDeleteByName() {
	s.createTestProduct("Oppo Find N2", nil, nil)

	deleted, err := s.store.DeleteByName(s.ctx, "Oppo Find N2")
	require.NoError(s.T(), err)
	require.True(s.T(), deleted)

	deleted, err = s.store.DeleteByName(s.ctx, "Oppo Find N2")
	require.NoError(s.T(), err)
	assert.False(s.T(), deleted)

	// the name is free again
	s.createTestProduct("Oppo Find N2", nil, nil)
}

func (s *storeContractSuite) TestIDsAreNotReused() {
	first := s.createTestProduct("First", nil, nil)
	_, err := s.store.DeleteByID(s.ctx, first.ID)
	require.NoError(s.T(), err)

	second := s.createTestProduct("Second", nil, nil)
	assert.Greater(s.T(), second.ID, first.ID)
}

func (s *storeContractSuite) TestConcurrentInsertSameName() {
	const workers = 8
	var succeeded, rejected atomic.Int32

	g, ctx := errgroup.WithContext(s.ctx)
	for i := range workers {
		g.Go(func() error {
			_, err := s.store.Insert(ctx, "Contended", ptr(float64(i+1)), nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, perrors.ErrNameConstraint):
				rejected.Add(1)
			default:
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	require.NoError(s.T(), g.Wait())

	assert.EqualValues(s.T(), 1, succeeded.Load(), "exactly one insert wins")
	assert.EqualValues(s.T(), workers-1, rejected.Load())

	all, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)
}

func (s *storeContractSuite) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}
