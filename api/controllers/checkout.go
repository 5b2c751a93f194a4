package controllers

import (
	"net/http"

	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// CheckoutQuote prices the session's cart. The tip is chosen with either
// ?tipPercent= or ?tipCents=; with neither the default preset applies.
func CheckoutQuote(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tip, err := tipFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), middleware.SessionIDFromContext(r.Context()), tip)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func CheckoutPickupTimes(svc checkoutsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.PickupOptions())
	}
}

// CheckoutSubmit places the order for the session's cart and returns the
// confirmation snapshot.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutsvc.SubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		confirmation, err := svc.Submit(r.Context(), middleware.SessionIDFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

// CheckoutConfirmation hands out the last confirmation once.
func CheckoutConfirmation(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmation, err := svc.Confirmation(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, confirmation)
	}
}

// maxTipCents caps a custom tip at $10,000.
const maxTipCents = 1_000_000

func tipFromQuery(r *http.Request) (checkoutsvc.TipSelection, error) {
	percent, err := validators.OptionalQueryInt(r, "tipPercent", 0, 100)
	if err != nil {
		return checkoutsvc.TipSelection{}, err
	}
	cents, err := validators.OptionalQueryInt64(r, "tipCents", 0, maxTipCents)
	if err != nil {
		return checkoutsvc.TipSelection{}, err
	}
	return checkoutsvc.TipSelection{Percent: percent, CustomCents: cents}, nil
}
