package domain

import (
	"fmt"
	"maps"
)

// Tier is a subscription ("abo") level.
type Tier string

const (
	TierStandard   Tier = "standard"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Country is a delivery destination. CountryNone marks an unselected delivery.
type Country string

const (
	CountryNone Country = "NONE"
	CountryCH   Country = "CH"
	CountryIT   Country = "IT"
)

// Product is the pricing definition for one subscription tier. Amounts are in
// cents.
type Product struct {
	MaxCards        int                    `json:"max_cards"`
	UpgradeAbo      Tier                   `json:"upgrade_abo"`
	SubscriptionFee int64                  `json:"subscription_fee"`
	CardPrices      map[LineItemType]int64 `json:"card_prices"`
	DeliveryFees    map[Country]int64      `json:"delivery_fees"`
}

// Upper bounds a loaded product must respect. MaxAmount times MaxCardLimit
// stays far below math.MaxInt64.
const (
	MaxAmount    int64 = 1_000_000_000
	MaxCardLimit       = 1_000_000
)

// PlaceholderProduct is the product in effect before any load has completed.
func PlaceholderProduct() Product {
	return Product{
		MaxCards:        1,
		UpgradeAbo:      TierStandard,
		SubscriptionFee: 0,
		CardPrices: map[LineItemType]int64{
			Sponsor: 0,
			Logo:    0,
			Graphic: 0,
		},
		DeliveryFees: map[Country]int64{
			CountryCH: 0,
			CountryIT: 0,
		},
	}
}

// Clone returns a deep copy so the stored product never aliases a loader's maps.
func (p Product) Clone() Product {
	p.CardPrices = maps.Clone(p.CardPrices)
	p.DeliveryFees = maps.Clone(p.DeliveryFees)
	return p
}

// Validate checks that a loaded product is usable.
func (p Product) Validate() error {
	if p.MaxCards < 0 || p.MaxCards > MaxCardLimit {
		return fmt.Errorf("max cards must be within 0..%d, got %d", MaxCardLimit, p.MaxCards)
	}
	if err := checkAmount("subscription fee", p.SubscriptionFee); err != nil {
		return err
	}
	for t, price := range p.CardPrices {
		if err := checkAmount("card price for "+string(t), price); err != nil {
			return err
		}
	}
	for c, fee := range p.DeliveryFees {
		if c == CountryNone {
			return fmt.Errorf("delivery fee table must not contain %s", CountryNone)
		}
		if err := checkAmount("delivery fee for "+string(c), fee); err != nil {
			return err
		}
	}
	return nil
}

func checkAmount(what string, v int64) error {
	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %d", what, v)
	}
	if v > MaxAmount {
		return fmt.Errorf("%s must not exceed %d, got %d", what, MaxAmount, v)
	}
	return nil
}
