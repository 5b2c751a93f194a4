package controllers

import (
	"net/http"

	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	catalogsvc "github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/internal/menu"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// CustomizePreview applies one toggle to the caller's current selection and
// returns the resulting selection and prices. Nothing is stored.
func CustomizePreview(menuSvc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload customizeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalog, err := menuSvc.Catalog(r.Context(), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toggles := payload.Selected
		if payload.Toggle != nil {
			toggles = append(toggles, *payload.Toggle)
		}
		custom, err := catalog.Customize(payload.ItemID, payload.VariationID, toggles)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		custom.SetQuantity(payload.Quantity)

		responses.WriteSuccess(w, customizeResponse{
			ItemID:      custom.Item().ID,
			VariationID: custom.Variation().ID,
			Selected:    custom.Selected(),
			Quantity:    custom.Quantity(),
			UnitPrice:   custom.UnitPrice(),
			TotalPrice:  custom.TotalPrice(),
		})
	}
}

type customizeRequest struct {
	ItemID      string           `json:"itemId" validate:"required"`
	VariationID string           `json:"variationId"`
	Selected    []menu.Selection `json:"selected" validate:"dive"`
	Toggle      *menu.Selection  `json:"toggle"`
	Quantity    int              `json:"quantity" validate:"gte=0,max=99"`
}

type customizeResponse struct {
	ItemID      string                  `json:"itemId"`
	VariationID string                  `json:"variationId"`
	Selected    []menu.SelectedModifier `json:"selected"`
	Quantity    int                     `json:"quantity"`
	UnitPrice   int64                   `json:"unitPrice"`
	TotalPrice  int64                   `json:"totalPrice"`
}
