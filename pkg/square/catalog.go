package square

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"
)

// Catalog object types the menu is assembled from.
var MenuObjectTypes = []string{"ITEM", "CATEGORY", "MODIFIER_LIST", "IMAGE"}

// CatalogObject is the subset of a Square catalog object the menu reads.
// Objects are decoded from the API's JSON form, so only the fields we use
// are declared.
type CatalogObject struct {
	Type             string               `json:"type"`
	ID               string               `json:"id"`
	IsDeleted        bool                 `json:"is_deleted,omitempty"`
	ItemData         *CatalogItem         `json:"item_data,omitempty"`
	CategoryData     *CatalogCategory     `json:"category_data,omitempty"`
	ModifierListData *CatalogModifierList `json:"modifier_list_data,omitempty"`
	ImageData        *CatalogImage        `json:"image_data,omitempty"`
}

type CatalogItem struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description,omitempty"`
	CategoryID        string                    `json:"category_id,omitempty"`
	Categories        []CatalogObjectRef        `json:"categories,omitempty"`
	ReportingCategory *CatalogObjectRef         `json:"reporting_category,omitempty"`
	ImageIDs          []string                  `json:"image_ids,omitempty"`
	Variations        []CatalogVariationObject  `json:"variations,omitempty"`
	ModifierListInfo  []CatalogModifierListInfo `json:"modifier_list_info,omitempty"`
	ProductType       string                    `json:"product_type,omitempty"`
	IsArchived        bool                      `json:"is_archived,omitempty"`
}

type CatalogObjectRef struct {
	ID string `json:"id"`
}

type CatalogVariationObject struct {
	ID                string                `json:"id"`
	IsDeleted         bool                  `json:"is_deleted,omitempty"`
	ItemVariationData *CatalogItemVariation `json:"item_variation_data,omitempty"`
}

type CatalogItemVariation struct {
	Name       string        `json:"name,omitempty"`
	PriceMoney *CatalogMoney `json:"price_money,omitempty"`
}

type CatalogMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

type CatalogModifierListInfo struct {
	ModifierListID       string `json:"modifier_list_id"`
	MinSelectedModifiers *int   `json:"min_selected_modifiers,omitempty"`
	MaxSelectedModifiers *int   `json:"max_selected_modifiers,omitempty"`
	Enabled              *bool  `json:"enabled,omitempty"`
}

type CatalogCategory struct {
	Name string `json:"name"`
}

type CatalogModifierList struct {
	Name                 string                  `json:"name"`
	SelectionType        string                  `json:"selection_type,omitempty"`
	MaxSelectedModifiers *int                    `json:"max_selected_modifiers,omitempty"`
	Modifiers            []CatalogModifierObject `json:"modifiers,omitempty"`
}

type CatalogModifierObject struct {
	ID           string           `json:"id"`
	IsDeleted    bool             `json:"is_deleted,omitempty"`
	ModifierData *CatalogModifier `json:"modifier_data,omitempty"`
}

type CatalogModifier struct {
	Name       string        `json:"name"`
	PriceMoney *CatalogMoney `json:"price_money,omitempty"`
}

type CatalogImage struct {
	URL string `json:"url"`
}

// CatalogSearchParams selects one page of catalog objects.
type CatalogSearchParams struct {
	ObjectTypes []string
	Cursor      string
}

// CatalogPage is one page of a paginated catalog search.
type CatalogPage struct {
	Objects []CatalogObject
	Cursor  string
}

// SearchCatalog returns one page of non-deleted catalog objects.
func (c *Client) SearchCatalog(ctx context.Context, params CatalogSearchParams) (*CatalogPage, error) {
	if c == nil || c.sdk == nil {
		return nil, errClientRequired
	}
	types := params.ObjectTypes
	if len(types) == 0 {
		types = MenuObjectTypes
	}
	objectTypes := make([]sq.CatalogObjectType, 0, len(types))
	for _, t := range types {
		objectTypes = append(objectTypes, sq.CatalogObjectType(strings.ToUpper(strings.TrimSpace(t))))
	}
	includeDeleted := false
	req := &sq.SearchCatalogObjectsRequest{
		ObjectTypes:           objectTypes,
		IncludeDeletedObjects: &includeDeleted,
	}
	if cursor := strings.TrimSpace(params.Cursor); cursor != "" {
		req.Cursor = &cursor
	}
	c.log(ctx, "request", "search_catalog", map[string]any{
		"object_types": types,
		"paged":        req.Cursor != nil,
	})

	start := time.Now()
	resp, err := c.sdk.Catalog.Search(ctx, req)
	c.observe("search_catalog", start, err)
	if err != nil {
		c.log(ctx, "error", "search_catalog", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "search catalog")
	}

	objects, err := decodeCatalogObjects(resp.GetObjects())
	if err != nil {
		return nil, err
	}
	page := &CatalogPage{
		Objects: objects,
		Cursor:  stringValue(resp.GetCursor()),
	}
	c.log(ctx, "response", "search_catalog", map[string]any{
		"objects":  len(page.Objects),
		"has_more": page.Cursor != "",
	})
	return page, nil
}

func decodeCatalogObjects(objects []*sq.CatalogObject) ([]CatalogObject, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(objects)
	if err != nil {
		return nil, fmt.Errorf("encode catalog objects: %w", err)
	}
	return decodeCatalogJSON(raw)
}

func decodeCatalogJSON(raw []byte) ([]CatalogObject, error) {
	var decoded []CatalogObject
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode catalog objects: %w", err)
	}
	out := decoded[:0]
	for _, obj := range decoded {
		if obj.IsDeleted || strings.TrimSpace(obj.ID) == "" {
			continue
		}
		obj.Type = strings.ToUpper(obj.Type)
		out = append(out, obj)
	}
	return out, nil
}
