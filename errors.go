package nmi_direct_post

import (
	"errors"
	"fmt"
	"net/http"
)

// Caller-side contract violations. They are returned before any network call.
var (
	ErrUnsupportedCyclePeriod = errors.New("recurring product cycle not supported")
	ErrMissingPaymentSource   = errors.New("payment token or stored card is required")
	ErrMissingBillingAddress  = errors.New("billing address is required")
	ErrMissingTransactionID   = errors.New("order has no gateway transaction id")
	ErrMissingSubscriptionID  = errors.New("order has no subscription transaction id")
	ErrMissingVaultID         = errors.New("customer vault id is required")
)

// ConfigurationError wraps one of the Err* sentinels with the operation that
// rejected the input.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("nmi_direct_post %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(op string, err error) error {
	return &ConfigurationError{Op: op, Err: err}
}

// HTTPError is returned when the gateway responds with a non-2xx HTTP status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
	Headers    http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("nmi_direct_post http error %d (%s): %s", e.StatusCode, e.Status, e.Body)
}
