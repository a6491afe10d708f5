package getattempt

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/dto"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	Get(ctx context.Context, attemptID string) (checkoutsvc.Attempt, error)
}

const msgNotFound = "Checkout session not found. Please start again."

// GetAttempt returns the current state of one of the user's checkout attempts.
// Clients poll it while a payment or an order save is in flight.
//
//	@Summary	Get checkout attempt
//	@Tags		checkout
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"Signed-in user"
//	@Param		attemptID	path		string	true	"Attempt id"
//	@Success	200			{object}	dto.Attempt
//	@Failure	404			{object}	response.ErrorBody
//	@Router		/checkout/attempts/{attemptID} [get]
func GetAttempt(w http.ResponseWriter, r *http.Request, service service) {
	attempt, err := service.Get(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		response.Error(w, err)

		return
	}
	if attempt.UserID != identity.UserID(r.Context()) {
		response.Error(w, apperr.New(apperr.NotFound, msgNotFound, checkoutsvc.ErrAttemptNotFound))

		return
	}

	response.JSON(w, http.StatusOK, dto.FromAttempt(attempt))
}
