package startcheckout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/dto"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
)

// service is an interface for the service layer.
type service interface {
	StartForUser(ctx context.Context, userID string) (checkoutsvc.Attempt, error)
}

// StartCheckout snapshots the cart of the signed-in user into a checkout attempt.
//
//	@Summary	Start checkout
//	@Tags		checkout
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"Signed-in user"
//	@Success	201			{object}	dto.Attempt
//	@Failure	400			{object}	response.ErrorBody
//	@Failure	409			{object}	response.ErrorBody
//	@Router		/checkout/attempts [post]
func StartCheckout(w http.ResponseWriter, r *http.Request, service service) {
	attempt, err := service.StartForUser(r.Context(), identity.UserID(r.Context()))
	if err != nil {
		if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
			slog.Error("Error starting checkout", "error", err)
		}
		response.Error(w, err)

		return
	}

	response.JSON(w, http.StatusCreated, dto.FromAttempt(attempt))
}
