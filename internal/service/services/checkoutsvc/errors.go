package checkoutsvc

import (
	"errors"

	"github.com/corray333/backend-labs/checkout/pkg/apperr"
)

var (
	ErrNotSignedIn        = errors.New("identity is missing")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAttemptNotFound    = errors.New("checkout attempt not found")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrAttemptCompleted   = errors.New("checkout attempt already completed")
	ErrCheckoutBlocked    = errors.New("online payment is blocked for this attempt")
	ErrTotalsChanged      = errors.New("cart totals changed")
	ErrAmountMismatch     = errors.New("payment session amount does not match order total")
)

const (
	msgSignIn           = "Please sign in to continue."
	msgEmptyCart        = "Your cart is empty. Please add items to proceed."
	msgAttemptNotFound  = "Checkout session not found. Please start again."
	msgInProgress       = "Your payment is already being processed."
	msgCompleted        = "This order has already been placed."
	msgTotalsChanged    = "Your cart has changed. Please review the updated total."
	msgScriptFailed     = "Failed to load payment gateway. Please try again."
	msgGatewayNotLoaded = "Payment gateway not loaded properly. Please refresh and try again."
	msgAccountFallback  = "Payment gateway account issue. Using alternative payment method..."
	msgKeyConfig        = "Payment configuration error. Please contact support."
	msgPaymentFailed    = "Payment failed. Please try again."
	msgSaveFailed       = "Failed to save order details"
	msgOnlineCompleted  = "Payment successful! Order placed successfully."
	msgCashOnDelivery   = "Order confirmed for Cash on Delivery."
	msgSessionNotFound  = "Payment session not found or already finished."
	cartPath            = "/cart"
	homePath            = "/"
)

func errEmptyCart() error {
	return apperr.New(apperr.Invalid, msgEmptyCart, ErrEmptyCart).WithRedirect(cartPath)
}

func errAttemptNotFound() error {
	return apperr.New(apperr.NotFound, msgAttemptNotFound, ErrAttemptNotFound)
}

func errInProgress() error {
	return apperr.New(apperr.Conflict, msgInProgress, ErrCheckoutInProgress)
}

func errCompleted() error {
	return apperr.New(apperr.Conflict, msgCompleted, ErrAttemptCompleted).WithRedirect(homePath)
}

func errBlocked() error {
	return apperr.New(apperr.Unavailable, msgKeyConfig, ErrCheckoutBlocked)
}
