package customer

import (
	"errors"
	"fmt"
)

// ErrPaymentsCustomerNotFound indicates a payments customer id that no longer resolves on the provider side
var ErrPaymentsCustomerNotFound = errors.New("payments customer not found")

// ErrRecordNotFound indicates a patch targeted a document that does not exist
var ErrRecordNotFound = errors.New("customer document not found")

// Upstream systems
const (
	SystemPayments  = "payments"
	SystemDocuments = "documents"
)

// UpstreamError is returned when either external system fails or rejects a call
type UpstreamError struct {
	System string
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.System, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Cause lets github.com/pkg/errors walk through UpstreamError
func (e *UpstreamError) Cause() error {
	return e.Err
}

func upstream(system, op string, err error) error {
	return &UpstreamError{
		System: system,
		Op:     op,
		Err:    err,
	}
}

// IsUpstream reports whether err came from one of the external systems
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
