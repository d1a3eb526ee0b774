package swaps

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSwap is returned when a swap or its signing material
	// cannot be found, locally or by the server.
	ErrUnknownSwap = errors.New("unknown swap")

	// ErrUnfulfillable is returned when a swap exists but can never be
	// fulfilled, for example because the htlc pays the wrong amount or
	// expires too soon. The invoice behind it should be expired.
	ErrUnfulfillable = errors.New("swap cannot be fulfilled")

	// ErrMultipartPayment is returned when the incoming htlc only covers
	// part of the invoice amount. Partial fulfillments are not supported.
	ErrMultipartPayment = errors.New("multipart payments are not " +
		"supported")

	// ErrInvoiceSecretsDepleted is returned when no unused invoice
	// secrets remain and new ones have to be registered with the server.
	ErrInvoiceSecretsDepleted = errors.New("invoice secrets depleted")

	// ErrNoRoutingPolicies is returned when no forwarding policies are
	// available to embed as a route hint, even after refreshing them.
	ErrNoRoutingPolicies = errors.New("no forwarding policies available")
)

// ServerErrorKind classifies errors returned by the settlement server.
type ServerErrorKind uint8

const (
	// KindUnknown is any server error without a more specific
	// classification.
	KindUnknown ServerErrorKind = iota

	// KindAlreadyFulfilled means the server already settled the swap,
	// usually because an earlier attempt succeeded after this client
	// stopped waiting for it.
	KindAlreadyFulfilled
)

// String returns a human readable kind.
func (k ServerErrorKind) String() string {
	switch k {
	case KindAlreadyFulfilled:
		return "AlreadyFulfilled"
	default:
		return "Unknown"
	}
}

// ServerError wraps an error returned by the settlement server together
// with its classification.
type ServerError struct {
	// Kind classifies the failure.
	Kind ServerErrorKind

	// Err is the underlying transport error.
	Err error
}

// Error returns the error string.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%v): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServerError) Unwrap() error {
	return e.Err
}

// IsServerErrorKind returns true if err is a server error of the given
// kind.
func IsServerErrorKind(err error, kind ServerErrorKind) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Kind == kind
}
