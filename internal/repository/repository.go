package repository

import (
	"context"
	"time"

	"github.com/utafrali/cardshop/internal/domain"
)

// ProductCache stores loaded product definitions keyed by product type.
type ProductCache interface {
	// Get returns the cached product. A miss is reported as apperrors.ErrNotFound.
	Get(ctx context.Context, productType string) (*domain.Product, error)

	// Save stores the product for the given type, expiring after ttl.
	Save(ctx context.Context, productType string, product domain.Product, ttl time.Duration) error

	// Delete evicts the cached product for the given type.
	Delete(ctx context.Context, productType string) error
}
