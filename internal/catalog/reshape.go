package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/ordering-backend/internal/menu"
	"github.com/angelmondragon/ordering-backend/pkg/square"
)

// Product types that are sold through the register but are not food.
var nonMenuProductTypes = map[string]struct{}{
	"GIFT_CARD":            {},
	"APPOINTMENTS_SERVICE": {},
	"EVENT":                {},
	"DONATION":             {},
	"MEMBERSHIP":           {},
	"CLASS_TICKET":         {},
	"DIGITAL":              {},
}

const singleSelection = "SINGLE"

// reshape turns raw catalog objects into the site's menu. Items without a
// recognized category, without variations, archived or non-food are dropped.
func reshape(objects []square.CatalogObject, table CategoryTable, fetchedAt time.Time) *menu.Catalog {
	categoryNames := map[string]string{}
	imageMap := map[string]string{}
	listsByID := map[string]square.CatalogObject{}
	var items []square.CatalogObject

	for _, obj := range objects {
		switch obj.Type {
		case "CATEGORY":
			if obj.CategoryData != nil {
				categoryNames[obj.ID] = obj.CategoryData.Name
			}
		case "IMAGE":
			if obj.ImageData != nil && obj.ImageData.URL != "" {
				imageMap[obj.ID] = obj.ImageData.URL
			}
		case "MODIFIER_LIST":
			if obj.ModifierListData != nil {
				listsByID[obj.ID] = obj
			}
		case "ITEM":
			if obj.ItemData != nil {
				items = append(items, obj)
			}
		}
	}

	out := &menu.Catalog{
		Categories:    []menu.Category{},
		MenuItems:     []menu.MenuItem{},
		ModifierLists: []menu.ModifierList{},
		ImageMap:      imageMap,
		FetchedAt:     fetchedAt,
	}
	usedCategories := map[string]menu.Category{}
	usedLists := map[string]struct{}{}

	for _, obj := range items {
		data := obj.ItemData
		if data.IsArchived {
			continue
		}
		if _, skip := nonMenuProductTypes[strings.ToUpper(data.ProductType)]; skip {
			continue
		}
		category, ok := resolveCategory(data, categoryNames, table)
		if !ok {
			continue
		}
		variations := reshapeVariations(data.Variations)
		if len(variations) == 0 {
			continue
		}

		item := menu.MenuItem{
			ID:          obj.ID,
			Name:        strings.TrimSpace(data.Name),
			Description: strings.TrimSpace(data.Description),
			Category:    category.Slug,
			Variations:  variations,
			Price:       variations[0].Price,
		}
		for _, info := range data.ModifierListInfo {
			if info.Enabled != nil && !*info.Enabled {
				continue
			}
			if _, known := listsByID[info.ModifierListID]; !known {
				continue
			}
			item.ModifierListIDs = append(item.ModifierListIDs, info.ModifierListID)
			usedLists[info.ModifierListID] = struct{}{}
		}
		if len(data.ImageIDs) > 0 {
			item.ImageID = data.ImageIDs[0]
			item.ImageURL = imageMap[item.ImageID]
		}

		out.MenuItems = append(out.MenuItems, item)
		usedCategories[category.Slug] = category
	}

	for _, category := range usedCategories {
		out.Categories = append(out.Categories, category)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].Order < out.Categories[j].Order
	})

	order := map[string]int{}
	for _, c := range out.Categories {
		order[c.Slug] = c.Order
	}
	sort.SliceStable(out.MenuItems, func(i, j int) bool {
		a, b := out.MenuItems[i], out.MenuItems[j]
		if order[a.Category] != order[b.Category] {
			return order[a.Category] < order[b.Category]
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	for _, obj := range objects {
		if _, used := usedLists[obj.ID]; !used || obj.Type != "MODIFIER_LIST" {
			continue
		}
		out.ModifierLists = append(out.ModifierLists, reshapeModifierList(obj))
	}
	return out
}

func resolveCategory(data *square.CatalogItem, names map[string]string, table CategoryTable) (menu.Category, bool) {
	ids := make([]string, 0, len(data.Categories)+2)
	for _, ref := range data.Categories {
		ids = append(ids, ref.ID)
	}
	ids = append(ids, data.CategoryID)
	if data.ReportingCategory != nil {
		ids = append(ids, data.ReportingCategory.ID)
	}
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			continue
		}
		if category, ok := table.Match(name); ok {
			return category, true
		}
	}
	return menu.Category{}, false
}

func reshapeVariations(objs []square.CatalogVariationObject) []menu.Variation {
	variations := make([]menu.Variation, 0, len(objs))
	for _, v := range objs {
		if v.IsDeleted || v.ItemVariationData == nil {
			continue
		}
		variation := menu.Variation{ID: v.ID, Name: strings.TrimSpace(v.ItemVariationData.Name)}
		if v.ItemVariationData.PriceMoney != nil {
			variation.Price = v.ItemVariationData.PriceMoney.Amount
		}
		variations = append(variations, variation)
	}
	return variations
}

func reshapeModifierList(obj square.CatalogObject) menu.ModifierList {
	data := obj.ModifierListData
	declared := data.MaxSelectedModifiers
	if declared == nil && strings.EqualFold(data.SelectionType, singleSelection) {
		one := 1
		declared = &one
	}
	list := menu.ModifierList{
		ID:            obj.ID,
		Name:          strings.TrimSpace(data.Name),
		MaxSelections: menu.SelectionCap(data.Name, declared),
		Options:       []menu.ModifierOption{},
	}
	for _, mod := range data.Modifiers {
		if mod.IsDeleted || mod.ModifierData == nil {
			continue
		}
		option := menu.ModifierOption{ID: mod.ID, Name: strings.TrimSpace(mod.ModifierData.Name)}
		if mod.ModifierData.PriceMoney != nil {
			option.Price = mod.ModifierData.PriceMoney.Amount
		}
		list.Options = append(list.Options, option)
	}
	return list
}
