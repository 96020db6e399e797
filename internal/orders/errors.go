package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("order not found")
	ErrForbidden = errors.New("not authorized")
)

// ProductNotFoundError names the line item that referenced a missing
// product; the whole checkout fails.
type ProductNotFoundError struct{ ProductID string }

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError names the product whose requested quantity
// exceeds availability.
type InsufficientStockError struct{ Name string }

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}

// InvalidTransitionError explains why a status change was rejected.
type InvalidTransitionError struct{ Reason string }

func (e *InvalidTransitionError) Error() string { return e.Reason }

// ValidationError rejects malformed checkout input before anything is
// looked up or reserved.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }
