package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var ErrNonPositiveTotal = errors.New("expected total must be positive")

var validate = validator.New()

// Validate validates a request body against its struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// PaymentRequest is the body of both payment choices. ExpectedTotal is the total the
// shopper was shown, as a JSON number or numeric string.
type PaymentRequest struct {
	ExpectedTotal json.Number `json:"expectedTotal" validate:"required,numeric"`
}

// Total validates the request and parses the expected total.
func (r *PaymentRequest) Total() (decimal.Decimal, error) {
	if err := Validate(r); err != nil {
		return decimal.Decimal{}, err
	}

	d, err := decimal.NewFromString(r.ExpectedTotal.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse expected total: %w", err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrNonPositiveTotal
	}

	return d, nil
}
