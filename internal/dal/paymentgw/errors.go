package paymentgw

import (
	"errors"
	"strings"
)

var (
	// ErrGatewayUnavailable means the checkout script or gateway object could not be used.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrAccount means the merchant account cannot take payments.
	ErrAccount = errors.New("payment gateway account error")
	// ErrKeyConfig means the merchant key is missing or malformed.
	ErrKeyConfig = errors.New("payment gateway key configuration error")

	ErrInvalidAmount   = errors.New("payment amount must be positive")
	ErrSessionNotFound = errors.New("payment session not found or already resolved")
)

// ErrorClass groups gateway initialization failures by how checkout reacts to them.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	// ClassUnavailable offers cash on delivery to the shopper.
	ClassUnavailable
	// ClassAccount switches to cash on delivery automatically.
	ClassAccount
	// ClassKey blocks checkout until the key is fixed.
	ClassKey
)

// Classify maps an OpenCheckout error to its class. Errors not produced by this
// package are matched on their message, account before key.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassOther
	case errors.Is(err, ErrAccount):
		return ClassAccount
	case errors.Is(err, ErrKeyConfig):
		return ClassKey
	case errors.Is(err, ErrGatewayUnavailable):
		return ClassUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "account"):
		return ClassAccount
	case strings.Contains(msg, "key"):
		return ClassKey
	default:
		return ClassOther
	}
}
