package tracking

import (
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
)

const (
	onlineDeliveryDays = 3
	codDeliveryDays    = 5
)

// Step is one entry of the order status timeline.
type Step struct {
	Key         order.Status `json:"key"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Completed   bool         `json:"completed"`
	Active      bool         `json:"active"`
}

var steps = []Step{
	{Key: order.StatusPending, Label: "Order Placed", Description: "Your order has been placed successfully"},
	{Key: order.StatusConfirmed, Label: "Order Confirmed", Description: "Your order has been confirmed"},
	{Key: order.StatusProcessing, Label: "Processing", Description: "Your order is being prepared"},
	{Key: order.StatusShipped, Label: "Shipped", Description: "Your order is on the way"},
	{Key: order.StatusDelivered, Label: "Delivered", Description: "Your order has been delivered"},
}

// Timeline returns the five fulfilment steps marked against the order status.
// Cancelled orders sit outside the timeline, so none of their steps is marked.
func Timeline(o order.Order) []Step {
	current := -1
	for i, s := range steps {
		if s.Key == o.Status {
			current = i

			break
		}
	}

	timeline := make([]Step, len(steps))
	for i, s := range steps {
		s.Completed = i <= current
		s.Active = i == current
		timeline[i] = s
	}

	return timeline
}

// EstimatedDelivery is three days after placement for prepaid orders and five for cash on delivery.
func EstimatedDelivery(o order.Order) time.Time {
	days := onlineDeliveryDays
	if o.PaymentMethod == order.PaymentMethodCashOnDelivery {
		days = codDeliveryDays
	}

	return o.CreatedAt.AddDate(0, 0, days)
}

// View is everything the order tracking page shows.
type View struct {
	OrderID           string       `json:"orderId"`
	OrderNumber       string       `json:"orderNumber"`
	Status            order.Status `json:"status"`
	PlacedAt          time.Time    `json:"placedAt"`
	PaymentBadge      string       `json:"paymentBadge"`
	PaymentNote       string       `json:"paymentNote,omitempty"`
	Total             string       `json:"total"`
	EstimatedDelivery time.Time    `json:"estimatedDelivery"`
	Timeline          []Step       `json:"timeline"`
}

// NewView derives the tracking view of o.
func NewView(o order.Order) View {
	v := View{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		Status:            o.Status,
		PlacedAt:          o.CreatedAt,
		PaymentBadge:      "Paid Online",
		Total:             o.Total.StringFixed(2),
		EstimatedDelivery: EstimatedDelivery(o),
		Timeline:          Timeline(o),
	}
	if o.PaymentMethod != order.PaymentMethodOnline {
		v.PaymentBadge = "Cash on Delivery"
	}
	if o.PaymentMethod == order.PaymentMethodCashOnDelivery {
		v.PaymentNote = "Payment will be collected upon delivery"
	}

	return v
}
