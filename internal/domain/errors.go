package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrOutOfStock            = errors.New("product out of stock")
	ErrDuplicateUsername     = errors.New("username already exists")
	ErrDuplicateReview       = errors.New("review already exists")
	ErrAlreadyInCart         = errors.New("product already in cart")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrWrongCurrentPassword  = errors.New("current password is incorrect")
	ErrEmptyCart             = errors.New("cart is empty")

	ErrPasswordMismatch = fmt.Errorf("%w: new passwords do not match", ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
)

// ValidationError lists the offending input fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// OrNil returns nil when no field was flagged.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InventoryError names the product whose stock could not cover a request.
type InventoryError struct {
	ProductID string
	Title     string
	Requested int
	Available int
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s (requested %d, available %d)", e.Title, e.Requested, e.Available)
}

func (e *InventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
