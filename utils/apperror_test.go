package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("rooms", "must be at least 1"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("booking", "bk-1")), http.StatusNotFound},
		{"token", &TokenError{Reason: "mismatch"}, http.StatusForbidden},
		{"state", NewStateError("booking %s is confirmed", "bk-1"), http.StatusConflict},
		{"gateway", &GatewayError{Op: "create order", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"incomplete payment", &GatewayError{Op: "verify", Incomplete: true}, http.StatusPaymentRequired},
		{"generation", &GenerationError{InvoiceID: "inv-1", Err: errors.New("boom")}, http.StatusServiceUnavailable},
		{"delivery", &DeliveryError{Attempts: 3, Err: errors.New("smtp")}, http.StatusServiceUnavailable},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "checkIn: must not be in the past", NewValidationError("checkIn", "must not be in the past").Error())
	assert.Equal(t, "gateway verify failed", (&GatewayError{Op: "verify"}).Error())
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("invoice", "inv-1"))))
	assert.False(t, IsNotFound(errors.New("nope")))
}
