package controllers

import (
	"net/http"

	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

// CreateOrder places an order and charges its upstream total. Success answers
// {orderId, paymentId, confirmationNumber}; failure {error, details?}.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orders.CreateOrderRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteFunctionError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteFunctionError(r.Context(), logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, result)
	}
}
