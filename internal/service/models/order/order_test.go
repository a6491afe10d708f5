package order

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/cart"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/internal/service/models/totals"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	for i := 0; i < 200; i++ {
		require.Regexp(t, `^ORB1700000000123(0|[1-9][0-9]{0,2})$`, NewOrderNumber(now))
	}
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{Status("test"), StatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDraft_SnapshotsProfileAndCart(t *testing.T) {
	profile := identity.Profile{
		UID:     "u1",
		Email:   "a@example.com",
		Phone:   "123",
		Address: "1 Main St",
		City:    "Pune",
		Country: "IN",
		Zip:     "411001",
	}
	items := []cart.LineItem{
		{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(50), Quantity: 2, Image: "/lamp.jpg"},
	}
	tot := totals.Calculate(items)

	o := Draft("ORB1", profile, items, tot, PaymentMethodCashOnDelivery, "")

	assert.Equal(t, "Guest", o.UserName)
	assert.Nil(t, o.PaymentID, "cash on delivery carries no payment id")
	assert.Equal(t, "Pune", o.ShippingAddress.City)
	assert.Equal(t, "123", o.Phone)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.NoError(t, o.Validate())

	items[0].Quantity = 9
	assert.Equal(t, 2, o.Items[0].Quantity, "order items must not alias cart items")
}

func TestValidate(t *testing.T) {
	pid := "pay_1"
	base := Order{
		Subtotal:       decimal.NewFromInt(100),
		ShippingCharge: decimal.NewFromInt(30),
		Total:          decimal.NewFromInt(130),
		PaymentMethod:  PaymentMethodOnline,
		PaymentID:      &pid,
	}
	require.NoError(t, base.Validate())

	broken := base
	broken.Total = decimal.NewFromInt(131)
	assert.ErrorIs(t, broken.Validate(), ErrTotalsMismatch)

	noPayment := base
	noPayment.PaymentID = nil
	assert.ErrorIs(t, noPayment.Validate(), ErrMissingPaymentID)
}

func TestTimestampOrderingIsLexicographic(t *testing.T) {
	// 00:00 IST is 18:30 UTC of the previous day, so second is the earlier instant.
	first := time.Date(2024, 9, 30, 23, 59, 59, 999_000_000, time.UTC)
	second := time.Date(2024, 10, 1, 0, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	a, b := FormatTimestamp(first), FormatTimestamp(second)
	require.Equal(t, first.Before(second), a < b, "lexicographic order of %s and %s disagrees with time order", a, b)

	parsed, err := ParseTimestamp(a)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(first), "round trip gave %v", parsed)
}
