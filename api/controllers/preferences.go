package controllers

import (
	"net/http"

	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/api/responses"
	"github.com/angelmondragon/ordering-backend/api/validators"
	"github.com/angelmondragon/ordering-backend/internal/preferences"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

// OrderTypeGet returns the order type with its fulfillment quote. Fee and
// estimate are present only for delivery.
func OrderTypeGet(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := svc.OrderType(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Fulfillment(orderType))
	}
}

func OrderTypeSet(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderTypeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType, err := svc.SetOrderType(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.OrderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Fulfillment(orderType))
	}
}

func DeliveryAddressGet(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := svc.Address(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}

// DeliveryAddressPatch merges the supplied fields; omitted fields keep their value.
func DeliveryAddressPatch(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch types.AddressPatch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.UpdateAddress(r.Context(), middleware.SessionIDFromContext(r.Context()), patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAddressResponse(addr))
	}
}

type orderTypeRequest struct {
	OrderType string `json:"orderType" validate:"required"`
}

type addressResponse struct {
	Address  types.DeliveryAddress `json:"address"`
	Complete bool                  `json:"complete"`
	Missing  []string              `json:"missing,omitempty"`
}

func newAddressResponse(addr types.DeliveryAddress) addressResponse {
	return addressResponse{
		Address:  addr,
		Complete: addr.IsComplete(),
		Missing:  addr.Missing(),
	}
}
