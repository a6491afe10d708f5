package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/dto"
	identitymw "github.com/corray333/backend-labs/checkout/internal/transport/http/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	History(ctx context.Context, profile identity.Profile) ([]order.Order, error)
}

const msgBadQuery = "Invalid order filter."

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	// Unknown keys such as email are ignored: history is always the signed-in user's.
	d.IgnoreUnknownKeys(true)

	return d
}

type queryOrdersRequest struct {
	Status string `schema:"status,omitempty" validate:"omitempty,oneof=pending confirmed processing shipped delivered cancelled"`
	Limit  int    `schema:"limit,omitempty"  validate:"gte=0"`
}

// apply filters orders by status and trims them to the limit. orders keep their order.
func (q *queryOrdersRequest) apply(orders []order.Order) []order.Order {
	if q.Status != "" {
		filtered := make([]order.Order, 0, len(orders))
		for _, o := range orders {
			if o.Status == order.Status(q.Status) {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	if q.Limit > 0 && len(orders) > q.Limit {
		orders = orders[:q.Limit]
	}

	return orders
}

// ListOrders returns the order history of the signed-in user, newest first.
//
//	@Summary	List orders
//	@Tags		orders
//	@Produce	json
//	@Param		X-User-ID	header		string	true	"Signed-in user"
//	@Param		status		query		string	false	"Order status"
//	@Param		limit		query		int		false	"Maximum number of orders"
//	@Success	200			{object}	dto.Orders
//	@Failure	400			{object}	response.ErrorBody
//	@Router		/orders [get]
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.BadRequest(w, msgBadQuery, err)
		slog.Error("Error decoding request", "error", err)

		return
	}
	if err := dto.Validate(query); err != nil {
		response.BadRequest(w, msgBadQuery, err)
		slog.Error("Error validating request", "error", err)

		return
	}

	profile, ok := identitymw.Profile(r.Context())
	if !ok {
		response.Error(w, apperr.New(apperr.Unauthorized, "Please sign in to continue.", nil))

		return
	}

	orders, err := service.History(r.Context(), profile)
	if err != nil {
		response.Error(w, err)
		slog.Error("Error getting orders", "error", err)

		return
	}

	response.JSON(w, http.StatusOK, dto.FromOrders(query.apply(orders)))
}
