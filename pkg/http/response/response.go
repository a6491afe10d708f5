// Package response writes JSON bodies and apperr notifications.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/checkout/pkg/apperr"
)

// ErrorBody is the notification the storefront shows for a failed request.
type ErrorBody struct {
	Kind            apperr.Kind `json:"kind"`
	Message         string      `json:"message"`
	FallbackOffered bool        `json:"fallbackOffered"`
	Redirect        string      `json:"redirect,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
	Data  any       `json:"data,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// Error writes err as a notification.
func Error(w http.ResponseWriter, err error) {
	ErrorWithData(w, err, nil)
}

// ErrorWithData writes err as a notification next to data, typically the state the
// request left behind.
func ErrorWithData(w http.ResponseWriter, err error, data any) {
	body := ErrorBody{Kind: apperr.Internal, Message: apperr.PublicMessage(err)}
	if ae, ok := apperr.As(err); ok {
		body.Kind = ae.Kind
		body.FallbackOffered = ae.FallbackOffered
		body.Redirect = ae.Redirect
	}

	JSON(w, apperr.HTTPStatus(err), errorEnvelope{Error: body, Data: data})
}

// BadRequest writes an invalid request notification carrying msg.
func BadRequest(w http.ResponseWriter, msg string, err error) {
	Error(w, apperr.New(apperr.Invalid, msg, err))
}
