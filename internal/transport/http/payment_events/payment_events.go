package paymentevents

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/dto"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	ResolvePayment(ctx context.Context, userID, sessionID string, res paymentgw.Result) (checkoutsvc.Attempt, error)
}

const msgBadEvent = "Invalid payment event."

const (
	eventSuccess = "success"
	eventFailure = "failure"
	eventCancel  = "cancel"
)

type paymentError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// paymentEventRequest is what the widget callbacks report for a session.
type paymentEventRequest struct {
	Event     string        `json:"event"     validate:"required,oneof=success failure cancel"`
	PaymentID string        `json:"paymentId" validate:"required_if=Event success"`
	Error     *paymentError `json:"error"`
}

// toResult converts the event to the gateway result it stands for.
func (r *paymentEventRequest) toResult() paymentgw.Result {
	switch r.Event {
	case eventSuccess:
		return paymentgw.Succeeded(r.PaymentID)
	case eventFailure:
		if r.Error == nil {
			return paymentgw.Failed("", "")
		}

		return paymentgw.Failed(r.Error.Code, r.Error.Description)
	default:
		return paymentgw.Cancelled()
	}
}

// PaymentEvent reports the widget outcome of a payment session and answers with the
// attempt once checkout has acted on it.
//
//	@Summary	Report payment outcome
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"Signed-in user"
//	@Param		sessionID	path		string	true	"Payment session id"
//	@Success	200			{object}	dto.Attempt
//	@Failure	400			{object}	response.ErrorBody
//	@Failure	404			{object}	response.ErrorBody
//	@Router		/payments/sessions/{sessionID}/events [post]
func PaymentEvent(w http.ResponseWriter, r *http.Request, service service) {
	req := paymentEventRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, msgBadEvent, err)
		slog.Error("Error decoding payment event", "error", err)

		return
	}
	if err := dto.Validate(&req); err != nil {
		response.BadRequest(w, msgBadEvent, err)
		slog.Error("Error validating payment event", "error", err)

		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	attempt, err := service.ResolvePayment(r.Context(), identity.UserID(r.Context()), sessionID, req.toResult())
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			slog.Error("Error resolving payment", "session_id", sessionID, "error", err)
		}
		response.Error(w, err)

		return
	}

	response.JSON(w, http.StatusOK, dto.FromAttempt(attempt))
}
