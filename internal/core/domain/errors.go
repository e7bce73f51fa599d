// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sale errors
var (
	ErrItemNotFound      = errors.New("stock item not found")
	ErrItemNotActive     = errors.New("stock item is not active")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOwnerNotFound     = errors.New("owner not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrEmptySale         = errors.New("sale must contain at least one item")
)

// Catalog errors
var (
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrKindMismatch           = errors.New("stock item kind mismatch")
	ErrValidation             = errors.New("validation failed")
)

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrForbidden          = errors.New("forbidden")
)

// SaleError reports which requested line rejected a sale.
type SaleError struct {
	Kind      error
	LineIndex int
	ItemID    uuid.UUID
	Requested int
	Available int
}

func (e *SaleError) Error() string {
	if errors.Is(e.Kind, ErrInsufficientStock) {
		return fmt.Sprintf("line %d (item %s): %s: requested %d, available %d",
			e.LineIndex, e.ItemID, e.Kind, e.Requested, e.Available)
	}
	return fmt.Sprintf("line %d (item %s): %s", e.LineIndex, e.ItemID, e.Kind)
}

func (e *SaleError) Unwrap() error {
	return e.Kind
}

// NewValidationError wraps ErrValidation with a field level message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
