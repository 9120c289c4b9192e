package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedCountry is returned when a product has no delivery fee for the
// requested country.
var ErrUnsupportedCountry = errors.New("unsupported delivery country")

// DeliverySelection is the chosen delivery country and its fee in cents.
type DeliverySelection struct {
	Country Country `json:"country"`
	Fee     int64   `json:"fee"`
}

// NoDelivery is the unselected delivery state.
func NoDelivery() DeliverySelection {
	return DeliverySelection{Country: CountryNone, Fee: 0}
}

// SelectCountry looks up the delivery fee for country in p.
func SelectCountry(p Product, country Country) (DeliverySelection, error) {
	fee, ok := p.DeliveryFees[country]
	if !ok || country == CountryNone {
		return DeliverySelection{}, fmt.Errorf("%w: %s", ErrUnsupportedCountry, country)
	}
	return DeliverySelection{Country: country, Fee: fee}, nil
}

// LimitStatus describes whether the cart exceeds the product's card limit.
// MaxCards and UpgradeAbo are only set when Reached is true.
type LimitStatus struct {
	Reached    bool `json:"reached"`
	MaxCards   int  `json:"max_cards,omitempty"`
	UpgradeAbo Tier `json:"upgrade_abo,omitempty"`
}

// TotalCardCount sums the quantities of every line item.
func TotalCardCount(c Cart) int {
	var count int
	for _, t := range LineItemTypes() {
		count += c.Item(t).Quantity
	}
	return count
}

// CartTotal prices the cart against p, before the subscription fee. Line items
// without a price contribute nothing. Totals saturate at math.MaxInt64.
func CartTotal(c Cart, p Product) int64 {
	var total int64
	for _, t := range LineItemTypes() {
		price, ok := p.CardPrices[t]
		if !ok {
			continue
		}
		total = addAmount(total, mulAmount(c.Item(t).Quantity, price))
	}
	return total
}

// Subtotal adds the subscription fee to the cart total.
func Subtotal(cartTotal int64, p Product) int64 {
	return addAmount(cartTotal, p.SubscriptionFee)
}

// Total adds the delivery fee to the subtotal.
func Total(subtotal int64, d DeliverySelection) int64 {
	return addAmount(subtotal, d.Fee)
}

func mulAmount(qty int, price int64) int64 {
	if qty > 0 && price > 0 && int64(qty) > math.MaxInt64/price {
		return math.MaxInt64
	}
	return int64(qty) * price
}

func addAmount(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// CheckLimit reports whether count exceeds the product's card limit. Being
// exactly at the limit is allowed.
func CheckLimit(count int, p Product) LimitStatus {
	if count > p.MaxCards {
		return LimitStatus{Reached: true, MaxCards: p.MaxCards, UpgradeAbo: p.UpgradeAbo}
	}
	return LimitStatus{Reached: false}
}

// CanCheckout requires a selected delivery country and a cart within the limit.
func CanCheckout(d DeliverySelection, l LimitStatus) bool {
	return d.Country != CountryNone && !l.Reached
}
