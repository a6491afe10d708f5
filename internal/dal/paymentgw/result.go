package paymentgw

import "fmt"

// ResultKind tells which of the three terminal outcomes a session ended with.
type ResultKind int

const (
	ResultSuccess ResultKind = iota + 1
	ResultFailure
	ResultCancelled
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Failure codes reported by the gateway widget.
const (
	CodeBadRequest   = "BAD_REQUEST_ERROR"
	CodeGatewayError = "GATEWAY_ERROR"
	CodeNetworkError = "NETWORK_ERROR"
)

// Result is the single outcome of a payment session.
type Result struct {
	Kind ResultKind `json:"kind"`
	// PaymentID is set on success only.
	PaymentID   string `json:"paymentId,omitempty"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

func Succeeded(paymentID string) Result {
	return Result{Kind: ResultSuccess, PaymentID: paymentID}
}

func Failed(code, description string) Result {
	return Result{Kind: ResultFailure, Code: code, Description: description}
}

func Cancelled() Result {
	return Result{Kind: ResultCancelled}
}

// Message is the notification shown to the shopper for a failed or cancelled payment.
func (r Result) Message() string {
	switch r.Kind {
	case ResultSuccess:
		return "Payment successful! Order placed successfully."
	case ResultCancelled:
		return "Payment cancelled"
	}

	switch r.Code {
	case CodeBadRequest:
		return "Invalid payment request. Please try again."
	case CodeGatewayError:
		return "Payment gateway error. Please try again."
	case CodeNetworkError:
		return "Network error. Please check your connection."
	}

	desc := r.Description
	if desc == "" {
		desc = "Unknown error"
	}

	return fmt.Sprintf("Payment failed: %s", desc)
}
