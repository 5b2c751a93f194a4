package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	cartsvc "github.com/angelmondragon/ordering-backend/internal/cart"
	catalogsvc "github.com/angelmondragon/ordering-backend/internal/catalog"
	"github.com/angelmondragon/ordering-backend/internal/menu"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const maxInstructionsLength = 500

// CartGet returns the session's cart with its derived figures.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartAddItem prices the customized item against the current menu and appends
// it as a new line. Client-supplied prices are never trusted.
func CartAddItem(svc cartsvc.Service, menuSvc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalog, err := menuSvc.Catalog(r.Context(), false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		custom, err := catalog.Customize(payload.ItemID, payload.VariationID, payload.Modifiers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		custom.SetQuantity(payload.Quantity)
		custom.SetInstructions(validators.SanitizeString(payload.Instructions, maxInstructionsLength))

		summary, err := svc.Add(r.Context(), middleware.SessionIDFromContext(r.Context()), cartsvc.FromCustomization(custom))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, summary)
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required"))
			return
		}

		summary, err := svc.UpdateQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), chi.URLParam(r, "itemId"), *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// CartRemoveItem drops a line. Removing an unknown line is not an error.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Remove(r.Context(), middleware.SessionIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type addCartItemRequest struct {
	ItemID       string           `json:"itemId" validate:"required"`
	VariationID  string           `json:"variationId"`
	Modifiers    []menu.Selection `json:"modifiers" validate:"dive"`
	Quantity     int              `json:"quantity" validate:"gte=0,max=99"`
	Instructions string           `json:"specialInstructions"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,max=99"`
}
