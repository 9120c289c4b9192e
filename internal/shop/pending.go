package shop

import (
	"context"

	"github.com/utafrali/cardshop/internal/domain"
)

// PendingLoad is the handle of an in-flight product load. It resolves
// exactly once.
type PendingLoad struct {
	productType string
	done        chan struct{}
	product     domain.Product
	err         error
}

func newPendingLoad(productType string) *PendingLoad {
	return &PendingLoad{
		productType: productType,
		done:        make(chan struct{}),
	}
}

func (p *PendingLoad) resolve(product domain.Product, err error) {
	p.product = product
	p.err = err
	close(p.done)
}

// ProductType returns the product type being loaded.
func (p *PendingLoad) ProductType() string {
	return p.productType
}

// Done is closed once the load has resolved.
func (p *PendingLoad) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the load resolves or ctx ends. Giving up on the wait
// does not cancel the load.
func (p *PendingLoad) Wait(ctx context.Context) (domain.Product, error) {
	select {
	case <-p.done:
		return p.product, p.err
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	}
}
