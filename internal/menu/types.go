// Package menu holds the read-only catalog shapes the site browses and the
// item-customization rules applied before a line reaches the cart.
package menu

import (
	"strings"
	"time"
)

// Catalog is the reshaped upstream catalog served to the site.
type Catalog struct {
	Categories    []Category        `json:"categories"`
	MenuItems     []MenuItem        `json:"menuItems"`
	ModifierLists []ModifierList    `json:"modifierLists"`
	ImageMap      map[string]string `json:"imageMap"`
	FetchedAt     time.Time         `json:"fetchedAt"`
}

// Item finds a menu item by id.
func (c *Catalog) Item(id string) (MenuItem, bool) {
	for _, item := range c.MenuItems {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Category is a menu section resolved from the fixed name lookup.
type Category struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// MenuItem is immutable once loaded. Price mirrors the first variation.
type MenuItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Category        string      `json:"category"`
	Variations      []Variation `json:"variations"`
	ModifierListIDs []string    `json:"modifierListIds,omitempty"`
	ImageID         string      `json:"imageId,omitempty"`
	ImageURL        string      `json:"imageUrl,omitempty"`
	Price           int64       `json:"price"`
}

// Variation returns the variation with the given id.
func (m MenuItem) Variation(id string) (Variation, bool) {
	for _, v := range m.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

type Variation struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ModifierList groups options. MaxSelections of zero means unlimited.
type ModifierList struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	MaxSelections int              `json:"maxSelections,omitempty"`
	Options       []ModifierOption `json:"options"`
}

// Option returns the option with the given id.
func (l ModifierList) Option(id string) (ModifierOption, bool) {
	for _, opt := range l.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return ModifierOption{}, false
}

type ModifierOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// SelectedModifier is a snapshot taken when the line is added; later catalog
// edits do not change it.
type SelectedModifier struct {
	ListID     string `json:"listId"`
	ListName   string `json:"listName"`
	ModifierID string `json:"modifierId"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
}

// SumModifiers totals the modifier prices of a line.
func SumModifiers(mods []SelectedModifier) int64 {
	var total int64
	for _, mod := range mods {
		total += mod.Price
	}
	return total
}

// pairedSidesCap applies to lists named like "Choose two sides" that carry
// no declared maximum upstream.
const pairedSidesCap = 2

// SelectionCap resolves a list's cap from the declared upstream maximum, then
// from its display name.
func SelectionCap(name string, declared *int) int {
	if declared != nil && *declared > 0 {
		return *declared
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "two") && strings.Contains(lower, "side") {
		return pairedSidesCap
	}
	return 0
}
