// Package errors provides custom error types for product-related operations.
package errors

import "errors"

// ErrDuplicateName is returned by the service when a product with the same name already exists.
var ErrDuplicateName = errors.New("product with this name already exists")

// ErrNameConstraint is returned by a store when a write violates the unique name constraint.
var ErrNameConstraint = errors.New("product name must be unique")
