package paycod

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/dto"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type service interface {
	Get(ctx context.Context, attemptID string) (checkoutsvc.Attempt, error)
	PayCashOnDelivery(ctx context.Context, attemptID string, expectedTotal decimal.Decimal) (checkoutsvc.Attempt, error)
}

const (
	msgBadRequest = "Invalid payment request. Please try again."
	msgNotFound   = "Checkout session not found. Please start again."
)

// PayCashOnDelivery places the order without the payment gateway.
//
//	@Summary	Pay cash on delivery
//	@Tags		checkout
//	@Accept		json
//	@Produce	json
//	@Param		X-User-ID	header		string				true	"Signed-in user"
//	@Param		attemptID	path		string				true	"Attempt id"
//	@Param		body		body		dto.PaymentRequest	true	"Total shown to the shopper"
//	@Success	201			{object}	dto.Attempt
//	@Failure	400			{object}	response.ErrorBody
//	@Failure	409			{object}	response.ErrorBody
//	@Failure	500			{object}	response.ErrorBody
//	@Router		/checkout/attempts/{attemptID}/cod [post]
func PayCashOnDelivery(w http.ResponseWriter, r *http.Request, service service) {
	req := dto.PaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, msgBadRequest, err)
		slog.Error("Error decoding request body for cash on delivery", "error", err)

		return
	}
	expected, err := req.Total()
	if err != nil {
		response.BadRequest(w, msgBadRequest, err)
		slog.Error("Error validating request body for cash on delivery", "error", err)

		return
	}

	attemptID := chi.URLParam(r, "attemptID")
	attempt, err := service.Get(r.Context(), attemptID)
	if err != nil {
		response.Error(w, err)

		return
	}
	if attempt.UserID != identity.UserID(r.Context()) {
		response.Error(w, apperr.New(apperr.NotFound, msgNotFound, checkoutsvc.ErrAttemptNotFound))

		return
	}

	attempt, err = service.PayCashOnDelivery(r.Context(), attemptID, expected)
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			slog.Error("Error placing cash on delivery order", "attempt_id", attemptID, "error", err)
		}
		if attempt.ID == "" {
			response.Error(w, err)

			return
		}
		response.ErrorWithData(w, err, dto.FromAttempt(attempt))

		return
	}

	response.JSON(w, http.StatusCreated, dto.FromAttempt(attempt))
}
