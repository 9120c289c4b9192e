package catalog

import (
	"context"
	"time"

	"github.com/utafrali/cardshop/internal/domain"
	apperrors "github.com/utafrali/cardshop/pkg/errors"
)

func deliveryFees() map[domain.Country]int64 {
	return map[domain.Country]int64{
		domain.CountryCH: 0,
		domain.CountryIT: 500,
	}
}

// DefaultProducts returns the built-in tier table keyed by product type.
func DefaultProducts() map[string]domain.Product {
	return map[string]domain.Product{
		string(domain.TierStandard): {
			MaxCards:        10,
			UpgradeAbo:      domain.TierPro,
			SubscriptionFee: 3600,
			CardPrices: map[domain.LineItemType]int64{
				domain.Sponsor: 4000,
				domain.Logo:    4500,
				domain.Graphic: 5000,
			},
			DeliveryFees: deliveryFees(),
		},
		string(domain.TierPro): {
			MaxCards:        50,
			UpgradeAbo:      domain.TierEnterprise,
			SubscriptionFee: 7200,
			CardPrices: map[domain.LineItemType]int64{
				domain.Sponsor: 3500,
				domain.Logo:    4000,
				domain.Graphic: 4500,
			},
			DeliveryFees: deliveryFees(),
		},
		string(domain.TierEnterprise): {
			MaxCards:        200,
			UpgradeAbo:      domain.TierEnterprise,
			SubscriptionFee: 14400,
			CardPrices: map[domain.LineItemType]int64{
				domain.Sponsor: 3000,
				domain.Logo:    3500,
				domain.Graphic: 4000,
			},
			DeliveryFees: deliveryFees(),
		},
	}
}

// StaticLoader serves products from an in-memory table after a fixed delay,
// standing in for a remote catalog.
type StaticLoader struct {
	products map[string]domain.Product
	delay    time.Duration
}

// NewStaticLoader creates a loader over products. A nil table selects
// DefaultProducts.
func NewStaticLoader(products map[string]domain.Product, delay time.Duration) *StaticLoader {
	if products == nil {
		products = DefaultProducts()
	}
	return &StaticLoader{products: products, delay: delay}
}

// Load waits for the configured delay, then returns a copy of the product.
func (l *StaticLoader) Load(ctx context.Context, productType string) (domain.Product, error) {
	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.Product{}, ctx.Err()
		}
	}

	p, ok := l.products[productType]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", productType)
	}
	return p.Clone(), nil
}
