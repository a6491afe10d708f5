package ordertracking

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/tracking"
	identitymw "github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	Tracking(ctx context.Context, profile identity.Profile, orderID string) (tracking.View, error)
}

// OrderTracking returns the status timeline of one of the user's orders.
//
//	@Summary	Track order
//	@Tags		orders
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"Signed-in user"
//	@Param		orderID		path		string	true	"Order id"
//	@Success	200			{object}	tracking.View
//	@Failure	404			{object}	response.ErrorBody
//	@Router		/orders/{orderID}/tracking [get]
func OrderTracking(w http.ResponseWriter, r *http.Request, service service) {
	profile, ok := identitymw.Profile(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.Unauthorized, "Please sign in to continue.", nil))

		return
	}

	view, err := service.Tracking(r.Context(), profile, chi.URLParam(r, "orderID"))
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			slog.Error("Error loading order tracking", "error", err)
		}
		response.Error(w, err)

		return
	}

	response.JSON(w, http.StatusOK, view)
}
