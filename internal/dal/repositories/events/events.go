package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/event"
	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
	"golang.org/x/sync/errgroup"
)

// Sender delivers one encoded message to the broker.
type Sender interface {
	Send(ctx context.Context, topic, key string, payload []byte) error
}

// Topics lists every topic an order event can be published to.
func Topics() []string {
	return []string{
		event.TypeOrderCreated.String(),
		event.TypeOrderStatusChanged.String(),
		event.TypeOrderPersistFailed.String(),
	}
}

// Publisher sends order events to the broker and parks undeliverable ones in the outbox.
type Publisher struct {
	sender     Sender
	outbox     ioutboxrepo.IOutboxRepository
	metrics    *metrics.Registry
	timeout    time.Duration
	maxRetries int
	now        func() time.Time
}

type option func(*Publisher)

// WithTimeout bounds a whole Publish call.
func WithTimeout(d time.Duration) option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithMaxRetries sets how many times the outbox worker retries a parked message.
func WithMaxRetries(n int) option {
	return func(p *Publisher) {
		p.maxRetries = n
	}
}

func WithMetrics(reg *metrics.Registry) option {
	return func(p *Publisher) {
		p.metrics = reg
	}
}

func NewPublisher(sender Sender, outboxRepo ioutboxrepo.IOutboxRepository, opts ...option) *Publisher {
	p := &Publisher{
		sender:     sender,
		outbox:     outboxRepo,
		timeout:    30 * time.Second,
		maxRetries: 8,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish delivers the events concurrently. It is detached from the caller's
// cancellation so a closed request does not drop events. An event the broker refuses
// is stored in the outbox; only a failure to store it is returned.
func (p *Publisher) Publish(ctx context.Context, events ...event.OrderEvent) error {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	g, gctx := errgroup.WithContext(pubCtx)
	g.SetLimit(3)

	for _, ev := range events {
		g.Go(func() error {
			payload, err := json.Marshal(ev)
			if err != nil {
				return fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
			}

			sendErr := p.sender.Send(gctx, ev.Type.String(), ev.Key(), payload)
			if sendErr == nil {
				p.observe(ev.Type, "sent")

				return nil
			}

			slog.Warn("Event delivery failed, storing in outbox",
				"type", ev.Type, "order_number", ev.OrderNumber, "error", sendErr)

			if err := p.park(pubCtx, ev, payload, sendErr); err != nil {
				p.observe(ev.Type, "failed")

				return err
			}
			p.observe(ev.Type, "outboxed")

			return nil
		})
	}

	return g.Wait()
}

func (p *Publisher) park(ctx context.Context, ev event.OrderEvent, payload []byte, cause error) error {
	now := p.now()
	err := p.outbox.Insert(ctx, outbox.OutboxMessage{
		Topic:       ev.Type.String(),
		Key:         ev.Key(),
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  p.maxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to store %s event in outbox: %w", ev.Type, err)
	}

	return nil
}

func (p *Publisher) observe(t event.Type, result string) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(t.String(), result).Inc()
	}
}
