// Package cart is the shopper's selection and the figures derived from it.
package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ordering-backend/internal/menu"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/money"
)

// Item is one cart line. Quantity is always at least one.
type Item struct {
	ID            string                  `json:"id"`
	ItemID        string                  `json:"itemId"`
	VariationID   string                  `json:"variationId"`
	Name          string                  `json:"name"`
	VariationName string                  `json:"variationName,omitempty"`
	BasePrice     int64                   `json:"basePrice"`
	Quantity      int                     `json:"quantity"`
	Modifiers     []menu.SelectedModifier `json:"modifiers,omitempty"`
	Instructions  string                  `json:"specialInstructions,omitempty"`
	ImageURL      string                  `json:"imageUrl,omitempty"`
}

// UnitPrice is the base price plus every modifier.
func (i Item) UnitPrice() int64 {
	return i.BasePrice + menu.SumModifiers(i.Modifiers)
}

// LineTotal is UnitPrice times quantity.
func (i Item) LineTotal() int64 {
	return i.UnitPrice() * int64(i.Quantity)
}

// AddItemInput is the snapshot taken from the customization step.
type AddItemInput struct {
	ItemID        string
	VariationID   string
	Name          string
	VariationName string
	BasePrice     int64
	Quantity      int
	Modifiers     []menu.SelectedModifier
	Instructions  string
	ImageURL      string
}

// Cart holds lines in insertion order.
type Cart struct {
	items []Item
	ids   IDGenerator
}

// New wraps previously persisted lines, dropping any that could not be valid.
func New(items []Item, ids IDGenerator) *Cart {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		kept = append(kept, item)
	}
	return &Cart{items: kept, ids: ids}
}

// AddItem appends a new line with a freshly generated id.
func (c *Cart) AddItem(in AddItemInput) Item {
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	mods := make([]menu.SelectedModifier, len(in.Modifiers))
	copy(mods, in.Modifiers)
	item := Item{
		ID:            c.ids.NewID(),
		ItemID:        in.ItemID,
		VariationID:   in.VariationID,
		Name:          in.Name,
		VariationName: in.VariationName,
		BasePrice:     in.BasePrice,
		Quantity:      quantity,
		Modifiers:     mods,
		Instructions:  strings.TrimSpace(in.Instructions),
		ImageURL:      in.ImageURL,
	}
	c.items = append(c.items, item)
	return item
}

// RemoveItem drops the line; it reports whether anything was removed.
func (c *Cart) RemoveItem(id string) bool {
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity replaces the quantity in place; n <= 0 removes the line.
func (c *Cart) UpdateQuantity(id string, n int) bool {
	if n <= 0 {
		return c.RemoveItem(id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = n
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemCount sums the line quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.items {
		total += item.LineTotal()
	}
	return total
}

// Pricing carries the tax rate and minimum order applied to a cart.
type Pricing struct {
	TaxRate      decimal.Decimal
	MinimumCents int64
}

// PricingFromConfig reads the ordering constants.
func PricingFromConfig(cfg config.OrderingConfig) Pricing {
	return Pricing{
		TaxRate:      cfg.Tax(),
		MinimumCents: cfg.MinimumOrderCents,
	}
}

// Tax is round(subtotal × rate).
func (p Pricing) Tax(subtotal int64) int64 {
	return money.ApplyRate(subtotal, p.TaxRate)
}

// MeetsMinimum reports subtotal >= the minimum order.
func (p Pricing) MeetsMinimum(subtotal int64) bool {
	return subtotal >= p.MinimumCents
}

// Totals are derived from the cart on every read and never stored.
type Totals struct {
	ItemCount    int   `json:"itemCount"`
	Subtotal     int64 `json:"subtotal"`
	Tax          int64 `json:"tax"`
	Total        int64 `json:"total"`
	MinimumOrder int64 `json:"minimumOrder"`
	MeetsMinimum bool  `json:"meetsMinimum"`
}

// Totals computes the derived figures for c.
func (p Pricing) Totals(c *Cart) Totals {
	subtotal := c.Subtotal()
	tax := p.Tax(subtotal)
	return Totals{
		ItemCount:    c.ItemCount(),
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        subtotal + tax,
		MinimumOrder: p.MinimumCents,
		MeetsMinimum: p.MeetsMinimum(subtotal),
	}
}

// FromCustomization snapshots a finished customization step.
func FromCustomization(c *menu.Customization) AddItemInput {
	item := c.Item()
	variation := c.Variation()
	return AddItemInput{
		ItemID:        item.ID,
		VariationID:   variation.ID,
		Name:          item.Name,
		VariationName: variation.Name,
		BasePrice:     variation.Price,
		Quantity:      c.Quantity(),
		Modifiers:     c.Selected(),
		Instructions:  c.Instructions(),
		ImageURL:      item.ImageURL,
	}
}
