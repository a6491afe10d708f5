package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/totals"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the ISO-8601 form orders are stored with. Fixed width and UTC,
// so string order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrPersistence          = errors.New("order persistence failed")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrNotFound             = errors.New("order not found")
	ErrTotalsMismatch       = errors.New("order total does not equal subtotal plus shipping")
	ErrMissingPaymentID     = errors.New("online order requires a payment id")
	ErrUnexpectedPaymentID  = errors.New("cash on delivery order cannot carry a payment id")
)

// Item is an immutable snapshot of a cart line at checkout time.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// ShippingAddress is copied from the identity profile when the order is placed.
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// Order represents a placed order in the system.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	UserEmail       string          `json:"userEmail"`
	UserName        string          `json:"userName"`
	Items           []Item          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCharge  decimal.Decimal `json:"shippingCharge"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentID       *string         `json:"paymentId"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Phone           string          `json:"phone,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Draft assembles an order from the checkout inputs. Status and timestamps are left
// to the repository.
func Draft(
	number string,
	profile identity.Profile,
	items []cart.LineItem,
	t totals.Totals,
	method PaymentMethod,
	paymentID string,
) Order {
	snapshot := make([]Item, len(items))
	for i, it := range items {
		snapshot[i] = Item{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
		}
	}

	o := Order{
		OrderNumber:    number,
		UserID:         profile.UID,
		UserEmail:      profile.Email,
		UserName:       profile.NameOrGuest(),
		Items:          snapshot,
		Subtotal:       t.Subtotal,
		ShippingCharge: t.ShippingCharge,
		Total:          t.Total,
		PaymentMethod:  method,
		ShippingAddress: ShippingAddress{
			Address: profile.Address,
			City:    profile.City,
			Country: profile.Country,
			Zip:     profile.Zip,
		},
		Phone: profile.Phone,
	}
	if method == PaymentMethodOnline {
		o.PaymentID = &paymentID
	}

	return o
}

// Validate checks the invariants an order must hold when it is created.
func (o *Order) Validate() error {
	if !o.Total.Equal(o.Subtotal.Add(o.ShippingCharge)) {
		return ErrTotalsMismatch
	}
	if !o.PaymentMethod.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, o.PaymentMethod)
	}
	switch o.PaymentMethod {
	case PaymentMethodOnline:
		if o.PaymentID == nil || *o.PaymentID == "" {
			return ErrMissingPaymentID
		}
	case PaymentMethodCashOnDelivery:
		if o.PaymentID != nil {
			return ErrUnexpectedPaymentID
		}
	}

	return nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp. RFC 3339 values written by older clients are accepted too.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339Nano, s)
}
