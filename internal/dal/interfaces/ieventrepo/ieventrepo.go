package ieventrepo

import (
	"context"

	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
)

// IEventPublisher publishes order events.
type IEventPublisher interface {
	Publish(ctx context.Context, events ...event.OrderEvent) error
}
