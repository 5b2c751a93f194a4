package catalog

import (
	"strings"

	"github.com/angelmondragon/ordering-backend/internal/menu"
)

// CategoryTable matches upstream category names to menu sections. Matching is
// by name because upstream category ids change when categories are edited.
type CategoryTable map[string]menu.Category

// DefaultCategories is the restaurant's menu layout.
var DefaultCategories = NewCategoryTable(
	menu.Category{Slug: "starters", Name: "Starters", Order: 1},
	menu.Category{Slug: "salads", Name: "Salads", Order: 2},
	menu.Category{Slug: "sandwiches", Name: "Sandwiches", Order: 3},
	menu.Category{Slug: "plates", Name: "Plates", Order: 4},
	menu.Category{Slug: "sides", Name: "Sides", Order: 5},
	menu.Category{Slug: "kids", Name: "Kids", Order: 6},
	menu.Category{Slug: "desserts", Name: "Desserts", Order: 7},
	menu.Category{Slug: "drinks", Name: "Drinks", Order: 8},
)

// NewCategoryTable indexes categories by lower-cased name.
func NewCategoryTable(categories ...menu.Category) CategoryTable {
	table := make(CategoryTable, len(categories))
	for _, c := range categories {
		table[normalizeName(c.Name)] = c
	}
	return table
}

// Match looks up an upstream category name, ignoring case.
func (t CategoryTable) Match(name string) (menu.Category, bool) {
	c, ok := t[normalizeName(name)]
	return c, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
