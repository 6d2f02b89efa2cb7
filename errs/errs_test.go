package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"UnknownType", &UnknownTypeError{ValueTypeID: "decimal128", MapVersion: "1"}, ErrUnknownType},
		{"ColumnNotFoundByName", &ColumnNotFoundError{ObjectID: "abc", Name: "NOPE", ByName: true}, ErrColumnNotFound},
		{"ColumnNotFoundByIndex", &ColumnNotFoundError{ObjectID: "abc", Index: 9}, ErrColumnNotFound},
		{"Transport", &TransportError{Endpoint: "http://x/cpb", Status: 503}, ErrTransport},
		{"Truncated", &TruncatedPayloadError{Expected: 12, Actual: 11}, ErrTruncatedPayload},
		{"InvalidObject", &InvalidObjectError{ObjectID: "abc", Reason: "no columns"}, ErrInvalidObject},
		{"Cancelled", &CancelledError{ObjectID: "abc", Cause: context.Canceled}, ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.sentinel)
			require.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestColumnNotFoundErrorMessage(t *testing.T) {
	byName := &ColumnNotFoundError{ObjectID: "obj", Name: "co2x", ByName: true}
	require.Contains(t, byName.Error(), `"co2x"`)

	byIndex := &ColumnNotFoundError{ObjectID: "obj", Index: 7}
	require.Contains(t, byIndex.Error(), "index 7")
}

func TestTransportErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Endpoint: "http://x/cpb", Cause: cause}

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "connection refused")

	withStatus := &TransportError{Endpoint: "http://x/cpb", Status: 404}
	require.Contains(t, withStatus.Error(), "404")
}

func TestCancelledErrorKeepsContextError(t *testing.T) {
	err := &CancelledError{ObjectID: "obj", Cause: context.DeadlineExceeded}

	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(&TransportError{Endpoint: "e", Status: 500}))
	require.True(t, IsRetryable(&CancelledError{ObjectID: "o", Cause: context.Canceled}))
	require.False(t, IsRetryable(&ColumnNotFoundError{Name: "x", ByName: true}))
	require.False(t, IsRetryable(&InvalidObjectError{ObjectID: "o"}))
	require.False(t, IsRetryable(nil))
}
