package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
)

// IOrderRepository is an interface for the order document repository.
type IOrderRepository interface {
	// Create stamps the order as pending, stores it and returns it with its id.
	Create(ctx context.Context, o order.Order) (order.Order, error)

	// FindByID returns a single order or order.ErrNotFound.
	FindByID(ctx context.Context, id string) (order.Order, error)

	// FindByUser returns the user's orders newest first, falling back to the email lookup.
	FindByUser(ctx context.Context, userID, emailFallback string) ([]order.Order, error)

	// FindByEmail returns the orders placed with email, newest first.
	FindByEmail(ctx context.Context, email string) ([]order.Order, error)

	// UpdateStatus moves an order to status if the transition is legal.
	UpdateStatus(ctx context.Context, id string, status order.Status) (bool, error)
}
