package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is returned for malformed or inconsistent input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a booking, payment or invoice does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// GatewayError wraps a failure talking to the payment gateway. Incomplete
// marks a payment the gateway reports as not yet captured.
type GatewayError struct {
	Op         string
	Incomplete bool
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return "gateway " + e.Op + " failed"
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// GenerationError is returned when an invoice artifact could not be produced.
type GenerationError struct {
	InvoiceID string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("invoice %s generation failed: %v", e.InvoiceID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// DeliveryError is returned after the email dispatcher exhausts its attempts.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// TokenError is returned for a missing or invalid download token.
type TokenError struct {
	Reason string
}

func (e *TokenError) Error() string { return "invalid download token: " + e.Reason }

// StateError is returned when an operation is not allowed in the record's current state.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

func NewStateError(format string, args ...interface{}) error {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		gatewayErr    *GatewayError
		generationErr *GenerationError
		deliveryErr   *DeliveryError
		tokenErr      *TokenError
		stateErr      *StateError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &tokenErr):
		return http.StatusForbidden
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.As(err, &gatewayErr):
		if gatewayErr.Incomplete {
			return http.StatusPaymentRequired
		}
		return http.StatusBadGateway
	case errors.As(err, &generationErr), errors.As(err, &deliveryErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
