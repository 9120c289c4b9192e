package domain

import "fmt"

// LineItemType identifies one of the card categories a cart tracks.
type LineItemType string

const (
	Sponsor LineItemType = "sponsor"
	Logo    LineItemType = "logo"
	Graphic LineItemType = "graphic"
)

// LineItemTypes returns every line-item type in a stable order.
func LineItemTypes() []LineItemType {
	return []LineItemType{Sponsor, Logo, Graphic}
}

// ParseLineItemType converts a raw string into a LineItemType.
func ParseLineItemType(s string) (LineItemType, error) {
	switch t := LineItemType(s); t {
	case Sponsor, Logo, Graphic:
		return t, nil
	default:
		return "", fmt.Errorf("unknown line item type %q", s)
	}
}

// CartLineItem holds the quantity for one line-item type.
type CartLineItem struct {
	Quantity int `json:"quantity"`
}

// Cart holds the quantities for the fixed set of line-item types. It is a
// value type: reducers return a modified copy and never touch the receiver.
type Cart struct {
	Sponsor CartLineItem `json:"sponsor"`
	Logo    CartLineItem `json:"logo"`
	Graphic CartLineItem `json:"graphic"`
}

// Item returns the line item for t. Unknown types yield a zero item.
func (c Cart) Item(t LineItemType) CartLineItem {
	switch t {
	case Sponsor:
		return c.Sponsor
	case Logo:
		return c.Logo
	case Graphic:
		return c.Graphic
	default:
		return CartLineItem{}
	}
}

// with returns a copy of c whose t line item is replaced by item.
func (c Cart) with(t LineItemType, item CartLineItem) Cart {
	switch t {
	case Sponsor:
		c.Sponsor = item
	case Logo:
		c.Logo = item
	case Graphic:
		c.Graphic = item
	}
	return c
}

// Increment returns a new cart with qty added to the t line item.
func Increment(c Cart, t LineItemType, qty int) Cart {
	item := c.Item(t)
	item.Quantity += qty
	return c.with(t, item)
}

// Decrement returns a new cart with qty subtracted from the t line item.
// Callers must check CanRemove first; no bounds check happens here.
func Decrement(c Cart, t LineItemType, qty int) Cart {
	item := c.Item(t)
	item.Quantity -= qty
	return c.with(t, item)
}

// CanRemove reports whether removing qty of t keeps the quantity non-negative.
func CanRemove(c Cart, t LineItemType, qty int) bool {
	return c.Item(t).Quantity-qty >= 0
}
