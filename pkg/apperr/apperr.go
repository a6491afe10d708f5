// Package apperr carries user-facing error notifications across layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Invalid      Kind = "invalid"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	Conflict     Kind = "conflict"
	Unavailable  Kind = "unavailable"
	Internal     Kind = "internal"
)

const defaultPublicMsg = "Something went wrong. Please try again."

// AppError is an error with a message that is safe to show to the shopper.
type AppError struct {
	Kind      Kind
	PublicMsg string
	// Redirect is where the client should navigate after showing the message, if anywhere.
	Redirect string
	// FallbackOffered tells the client it may offer cash on delivery instead.
	FallbackOffered bool
	Err             error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(kind Kind, publicMsg string, err error) *AppError {
	return &AppError{Kind: kind, PublicMsg: publicMsg, Err: err}
}

// WithRedirect sets the navigation hint and returns e.
func (e *AppError) WithRedirect(path string) *AppError {
	e.Redirect = path

	return e
}

// WithFallback marks the cash-on-delivery fallback as available and returns e.
func (e *AppError) WithFallback() *AppError {
	e.FallbackOffered = true

	return e
}

// Wrap hides err behind the generic public message.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{Kind: Internal, PublicMsg: defaultPublicMsg, Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}

	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case Unauthorized:
			return http.StatusUnauthorized
		case Forbidden:
			return http.StatusForbidden
		case NotFound:
			return http.StatusNotFound
		case Conflict:
			return http.StatusConflict
		case Unavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}

	return defaultPublicMsg
}
