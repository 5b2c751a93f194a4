package menu

import (
	"strings"

	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
)

// Customization is the item-customization step: one variation, a set of
// modifier selections, a quantity and free-text instructions.
type Customization struct {
	item         MenuItem
	variation    Variation
	lists        map[string]ModifierList
	selected     []SelectedModifier
	quantity     int
	instructions string
}

// NewCustomization starts customizing item. An empty variationID picks the
// first variation. Only lists the item references can be toggled.
func NewCustomization(item MenuItem, variationID string, lists []ModifierList) (*Customization, error) {
	if len(item.Variations) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item has no variations")
	}
	variation := item.Variations[0]
	if id := strings.TrimSpace(variationID); id != "" {
		v, ok := item.Variation(id)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown variation").
				WithDetails(map[string]any{"variationId": id})
		}
		variation = v
	}

	allowed := make(map[string]struct{}, len(item.ModifierListIDs))
	for _, id := range item.ModifierListIDs {
		allowed[id] = struct{}{}
	}
	byID := make(map[string]ModifierList, len(lists))
	for _, list := range lists {
		if _, ok := allowed[list.ID]; ok {
			byID[list.ID] = list
		}
	}

	return &Customization{
		item:      item,
		variation: variation,
		lists:     byID,
		quantity:  1,
	}, nil
}

// Toggle deselects an already-selected option. Otherwise it selects it,
// first evicting the earliest selection of that list when the list is full.
func (c *Customization) Toggle(listID, optionID string) error {
	list, ok := c.lists[listID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown modifier list").
			WithDetails(map[string]any{"listId": listID})
	}
	option, ok := list.Option(optionID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown modifier").
			WithDetails(map[string]any{"listId": listID, "modifierId": optionID})
	}

	for i, sel := range c.selected {
		if sel.ListID == listID && sel.ModifierID == optionID {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			return nil
		}
	}

	if list.MaxSelections > 0 && c.countIn(listID) >= list.MaxSelections {
		c.evictOldest(listID)
	}
	c.selected = append(c.selected, SelectedModifier{
		ListID:     list.ID,
		ListName:   list.Name,
		ModifierID: option.ID,
		Name:       option.Name,
		Price:      option.Price,
	})
	return nil
}

func (c *Customization) countIn(listID string) int {
	n := 0
	for _, sel := range c.selected {
		if sel.ListID == listID {
			n++
		}
	}
	return n
}

func (c *Customization) evictOldest(listID string) {
	for i, sel := range c.selected {
		if sel.ListID == listID {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			return
		}
	}
}

// SetQuantity sets the quantity; values below one clamp to one.
func (c *Customization) SetQuantity(n int) {
	if n < 1 {
		n = 1
	}
	c.quantity = n
}

func (c *Customization) SetInstructions(s string) {
	c.instructions = strings.TrimSpace(s)
}

// Selected returns the selections in the order they were made.
func (c *Customization) Selected() []SelectedModifier {
	out := make([]SelectedModifier, len(c.selected))
	copy(out, c.selected)
	return out
}

func (c *Customization) Item() MenuItem { return c.item }

func (c *Customization) Variation() Variation { return c.variation }

func (c *Customization) Quantity() int { return c.quantity }

func (c *Customization) Instructions() string { return c.instructions }

// UnitPrice is the variation price plus every selected modifier.
func (c *Customization) UnitPrice() int64 {
	return c.variation.Price + SumModifiers(c.selected)
}

// TotalPrice is UnitPrice times quantity.
func (c *Customization) TotalPrice() int64 {
	return c.UnitPrice() * int64(c.quantity)
}

// Selection names one option of one modifier list.
type Selection struct {
	ListID     string `json:"listId"`
	ModifierID string `json:"modifierId"`
}

// Customize starts a customization of itemID against this catalog and
// replays toggles in order.
func (c *Catalog) Customize(itemID, variationID string, toggles []Selection) (*Customization, error) {
	item, ok := c.Item(itemID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
			WithDetails(map[string]any{"itemId": itemID})
	}
	custom, err := NewCustomization(item, variationID, c.ModifierLists)
	if err != nil {
		return nil, err
	}
	for _, t := range toggles {
		if err := custom.Toggle(t.ListID, t.ModifierID); err != nil {
			return nil, err
		}
	}
	return custom, nil
}
