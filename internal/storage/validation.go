package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tiendamoda/reclass/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrEmptySlice      = errors.New("slice cannot be empty")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidProposal = errors.New("invalid proposal")
	ErrInvalidRun      = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateProducts validates a slice of products.
func validateProducts(products []model.Product) error {
	if products == nil {
		return fmt.Errorf("%w: products", ErrNilParameter)
	}
	if len(products) == 0 {
		return fmt.Errorf("%w: products", ErrEmptySlice)
	}

	for i, p := range products {
		if err := validateProduct(&p); err != nil {
			return fmt.Errorf("product at index %d: %w", i, err)
		}
	}
	return nil
}

// validateProduct validates a single product.
func validateProduct(p *model.Product) error {
	if p == nil {
		return fmt.Errorf("%w: product", ErrNilParameter)
	}
	if p.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidProduct)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProduct)
	}
	return nil
}

// validateProposal validates a proposal before persistence.
func validateProposal(p *model.Proposal) error {
	if p == nil {
		return fmt.Errorf("%w: proposal", ErrNilParameter)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProposal, err)
	}
	return nil
}

// validateRun validates a run row before persistence.
func validateRun(r *model.ReseedRun) error {
	if r == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRun, err)
	}
	return nil
}
