package event

import (
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/shopspring/decimal"
)

// Type names the routing key / topic an order event is published under.
type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	// TypeOrderPersistFailed alerts operators that a payment was captured but its order was not saved.
	TypeOrderPersistFailed Type = "order.persist_failed"
)

func (t Type) String() string {
	return string(t)
}

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Type          Type                `json:"type"`
	OrderID       string              `json:"orderId,omitempty"`
	OrderNumber   string              `json:"orderNumber"`
	UserID        string              `json:"userId"`
	UserEmail     string              `json:"userEmail"`
	Status        order.Status        `json:"status,omitempty"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod"`
	PaymentID     string              `json:"paymentId,omitempty"`
	Total         decimal.Decimal     `json:"total"`
	Reason        string              `json:"reason,omitempty"`
	OccurredAt    time.Time           `json:"occurredAt"`
}

// FromOrder builds an event of type t describing o.
func FromOrder(t Type, o order.Order, now time.Time) OrderEvent {
	ev := OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		UserEmail:     o.UserEmail,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		OccurredAt:    now,
	}
	if o.PaymentID != nil {
		ev.PaymentID = *o.PaymentID
	}

	return ev
}

// Key is the partitioning key of the event.
func (e OrderEvent) Key() string {
	return e.OrderNumber
}
