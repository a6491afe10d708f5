package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ieventrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/tracking"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrStatusNotApplied = errors.New("order status changed concurrently")

// OrderService serves order history, tracking and administrative status updates.
type OrderService struct {
	orders  iorderrepo.IOrderRepository
	events  ieventrepo.IEventPublisher
	metrics *metrics.Registry
	now     func() time.Time
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		metrics: metrics.NewRegistry(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orders == nil {
		panic("ordersvc: order repository is required")
	}

	return s
}

// WithOrderRepository sets the order repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orders = repo
	}
}

// WithEventPublisher sets where status changes are announced.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventPublisher(p ieventrepo.IEventPublisher) option {
	return func(s *OrderService) {
		s.events = p
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMetrics(reg *metrics.Registry) option {
	return func(s *OrderService) {
		s.metrics = reg
	}
}

// History returns the orders of profile newest first, falling back to its email.
func (s *OrderService) History(ctx context.Context, profile identity.Profile) ([]order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.History")
	defer span.End()

	orders, err := s.orders.FindByUser(ctx, profile.UID, profile.Email)
	if err != nil {
		slog.Error("Failed to load order history", "user_id", profile.UID, "error", err)

		return nil, apperr.Wrap(err)
	}

	return orders, nil
}

// Tracking returns the tracking view of one of profile's orders. Orders of other
// users are reported as missing.
func (s *OrderService) Tracking(ctx context.Context, profile identity.Profile, orderID string) (tracking.View, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.Tracking")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID))

	o, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		return tracking.View{}, apperr.New(apperr.NotFound, "Order not found.", err)
	}
	if err != nil {
		return tracking.View{}, apperr.Wrap(err)
	}

	if o.UserID != profile.UID && (o.UserEmail == "" || o.UserEmail != profile.Email) {
		return tracking.View{}, apperr.New(apperr.NotFound, "Order not found.", order.ErrNotFound)
	}

	return tracking.NewView(o), nil
}

// GetOrder returns any order by id.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	return o, nil
}

// UpdateStatus moves an order along the fulfilment table and announces the change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status order.Status) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", orderID), attribute.String("status", status.String()))

	ok, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	if !ok {
		return order.Order{}, ErrStatusNotApplied
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to reload order %s: %w", orderID, err)
	}

	s.metrics.OrderStatusMoves.WithLabelValues(status.String()).Inc()
	slog.Info("Order status updated", "order_id", orderID, "status", status)

	if s.events != nil {
		if err := s.events.Publish(ctx, event.FromOrder(event.TypeOrderStatusChanged, o, s.now())); err != nil {
			slog.Error("Failed to publish status change", "order_id", orderID, "error", err)
		}
	}

	return o, nil
}
