package icartrepo

import (
	"context"

	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
)

// ICartRepository reads and clears a shopper's cart.
type ICartRepository interface {
	Items(ctx context.Context, userID string) ([]cart.LineItem, error)
	Clear(ctx context.Context, userID string) error
}
