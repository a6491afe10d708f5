// Package dto converts service results to response bodies.
package dto

import (
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/paymentgw"
	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
)

type Notice struct {
	Level   checkoutsvc.NoticeLevel `json:"level"`
	Message string                  `json:"message"`
}

// Navigation tells the client to go to Path after AfterMs milliseconds.
type Navigation struct {
	Path    string `json:"path"`
	AfterMs int64  `json:"afterMs"`
}

// Attempt is a checkout attempt as the checkout page renders it. Amounts are fixed to two decimals.
type Attempt struct {
	ID              string            `json:"id"`
	State           checkoutsvc.State `json:"state"`
	Items           []cart.LineItem   `json:"items"`
	Subtotal        string            `json:"subtotal"`
	ShippingCharge  string            `json:"shippingCharge"`
	Total           string            `json:"total"`
	Currency        string            `json:"currency"`
	PaymentID       string            `json:"paymentId,omitempty"`
	SessionID       string            `json:"sessionId,omitempty"`
	Order           *order.Order      `json:"order,omitempty"`
	Notice          *Notice           `json:"notice,omitempty"`
	Navigation      *Navigation       `json:"navigation,omitempty"`
	FallbackOffered bool              `json:"fallbackOffered"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// OnlineCheckout carries the widget options the browser opens the gateway with.
type OnlineCheckout struct {
	Attempt Attempt            `json:"attempt"`
	Session *paymentgw.Session `json:"session,omitempty"`
}

// Orders is the order history body.
type Orders struct {
	Orders []order.Order `json:"orders"`
}

// FromAttempt converts a checkout attempt snapshot.
func FromAttempt(a checkoutsvc.Attempt) Attempt {
	resp := Attempt{
		ID:              a.ID,
		State:           a.State,
		Items:           a.Items,
		Subtotal:        a.Totals.Subtotal.StringFixed(2),
		ShippingCharge:  a.Totals.ShippingCharge.StringFixed(2),
		Total:           a.Totals.Total.StringFixed(2),
		Currency:        a.Currency.String(),
		PaymentID:       a.PaymentID,
		SessionID:       a.SessionID,
		Order:           a.Order,
		FallbackOffered: a.FallbackOffered,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if resp.Items == nil {
		resp.Items = []cart.LineItem{}
	}
	if a.Notice != nil {
		resp.Notice = &Notice{Level: a.Notice.Level, Message: a.Notice.Message}
	}
	if a.Navigation != nil {
		resp.Navigation = &Navigation{Path: a.Navigation.Path, AfterMs: a.Navigation.After.Milliseconds()}
	}

	return resp
}

// FromOnlineCheckout converts the result of choosing online payment.
func FromOnlineCheckout(oc checkoutsvc.OnlineCheckout) OnlineCheckout {
	return OnlineCheckout{Attempt: FromAttempt(oc.Attempt), Session: oc.Session}
}

// FromOrders converts an order history, rendering no orders as an empty list.
func FromOrders(orders []order.Order) Orders {
	if orders == nil {
		orders = []order.Order{}
	}

	return Orders{Orders: orders}
}
