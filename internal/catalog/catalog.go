// Package catalog resolves a product type to its pricing definition.
package catalog

import (
	"context"

	"github.com/utafrali/cardshop/internal/domain"
)

// Loader fetches the product definition for a product type.
type Loader interface {
	Load(ctx context.Context, productType string) (domain.Product, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, productType string) (domain.Product, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, productType string) (domain.Product, error) {
	return f(ctx, productType)
}
