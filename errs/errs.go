// Package errs defines the error taxonomy shared by every colbin package.
//
// Each failure class has a sentinel error for errors.Is checks and a typed
// error carrying the details of the failing request. Typed errors unwrap to
// their sentinel, so callers can pick whichever granularity they need:
//
//	var cnf *errs.ColumnNotFoundError
//	switch {
//	case errors.As(err, &cnf):
//	    // ask for a different column
//	case errors.Is(err, errs.ErrInvalidObject):
//	    // this object has no data
//	case errs.IsRetryable(err):
//	    // network hiccup, try again
//	}
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned when the catalog supplies a value type with no primitive mapping.
	ErrUnknownType = errors.New("unknown value type")
	// ErrColumnNotFound is returned when a column request matches no column by name or index.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTransport is returned when a remote fetch fails or answers with a non-success status.
	ErrTransport = errors.New("transport error")
	// ErrTruncatedPayload is returned when the payload size does not match the layout size.
	ErrTruncatedPayload = errors.New("truncated payload")
	// ErrInvalidObject is returned when an object id has no binary representation.
	ErrInvalidObject = errors.New("invalid object")
	// ErrCancelled is returned when a fetch is abandoned because its context ended.
	ErrCancelled = errors.New("fetch cancelled")

	// ErrObjectNotFound is returned by schema resolvers when the catalog has no entry for an object id.
	ErrObjectNotFound = errors.New("object not found in catalog")
	// ErrInvalidLayout is returned when a layout does not fit the column names or row count it is used with.
	ErrInvalidLayout = errors.New("invalid layout")
)

// UnknownTypeError reports a catalog value-type identifier absent from the type mapping.
type UnknownTypeError struct {
	ValueTypeID string
	MapVersion  string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q (type map version %s)", ErrUnknownType, e.ValueTypeID, e.MapVersion)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// ColumnNotFoundError reports the offending entry of a column request.
//
// Exactly one of Name or Index is meaningful, as indicated by ByName.
type ColumnNotFoundError struct {
	ObjectID string
	Name     string
	Index    int
	ByName   bool
}

func (e *ColumnNotFoundError) Error() string {
	if e.ByName {
		return fmt.Sprintf("%s: no column named %q in object %s", ErrColumnNotFound, e.Name, e.ObjectID)
	}

	return fmt.Sprintf("%s: column index %d out of range in object %s", ErrColumnNotFound, e.Index, e.ObjectID)
}

func (e *ColumnNotFoundError) Unwrap() error { return ErrColumnNotFound }

// TransportError reports a failed remote request.
//
// Status is zero when no HTTP response was received.
type TransportError struct {
	Endpoint string
	Status   int
	Cause    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Cause != nil:
		return fmt.Sprintf("%s: %s returned status %d: %v", ErrTransport, e.Endpoint, e.Status, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s returned status %d", ErrTransport, e.Endpoint, e.Status)
	default:
		return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Endpoint, e.Cause)
	}
}

func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}

	return []error{ErrTransport, e.Cause}
}

// TruncatedPayloadError reports a payload whose size differs from what the layout demands.
type TruncatedPayloadError struct {
	Expected int
	Actual   int
}

func (e *TruncatedPayloadError) Error() string {
	return fmt.Sprintf("%s: layout requires %d bytes, payload has %d", ErrTruncatedPayload, e.Expected, e.Actual)
}

func (e *TruncatedPayloadError) Unwrap() error { return ErrTruncatedPayload }

// InvalidObjectError reports an object id that cannot be materialized.
type InvalidObjectError struct {
	ObjectID string
	Reason   string
}

func (e *InvalidObjectError) Error() string {
	return fmt.Sprintf("%s %s: %s", ErrInvalidObject, e.ObjectID, e.Reason)
}

func (e *InvalidObjectError) Unwrap() error { return ErrInvalidObject }

// CancelledError reports a fetch that stopped because its context was cancelled or timed out.
// Any bytes read before cancellation have been discarded.
type CancelledError struct {
	ObjectID string
	Cause    error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s for object %s: %v", ErrCancelled, e.ObjectID, e.Cause)
}

func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.Cause}
}

// IsRetryable reports whether the failure is transient, i.e. the same request may succeed later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrCancelled)
}
