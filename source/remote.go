package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/internal/pool"
	"github.com/goccy/go-json"
)

// DefaultDataEndpoint is the tabular data service that serves column-major payloads.
const DefaultDataEndpoint = "https://data.icos-cp.eu/cpb"

// readChunk is the largest single read from a response body between
// cancellation checks.
const readChunk = 32 * 1024

// Remote posts fetch requests to the tabular data service and streams back payloads.
type Remote struct {
	client   *http.Client
	endpoint string
}

// NewRemote creates a fetcher for endpoint using client.
func NewRemote(client *http.Client, endpoint string) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultDataEndpoint
	}

	return &Remote{client: client, endpoint: endpoint}
}

// Endpoint returns the data endpoint URL.
func (r *Remote) Endpoint() string {
	return r.endpoint
}

// Fetch posts req and reads the response body, expecting exactly expected bytes.
//
// The body is read in chunks into a pooled buffer with a context check
// between reads; on cancellation the buffer is discarded and nothing is
// returned.
//
// Returns:
//   - []byte: The payload, owned by the caller
//   - error: *errs.TransportError for connection failures and non-2xx
//     responses, *errs.CancelledError when ctx ends first,
//     *errs.TruncatedPayloadError when the body size differs from expected
func (r *Remote) Fetch(ctx context.Context, objectID string, req FetchRequest, expected int) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode fetch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &errs.TransportError{Endpoint: r.endpoint, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/octet-stream")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &errs.CancelledError{ObjectID: objectID, Cause: ctxErr}
		}

		return nil, &errs.TransportError{Endpoint: r.endpoint, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errs.TransportError{Endpoint: r.endpoint, Status: resp.StatusCode, Cause: statusCause(resp)}
	}

	return readBody(ctx, objectID, r.endpoint, resp.Body, expected)
}

func readBody(ctx context.Context, objectID, endpoint string, body io.Reader, expected int) ([]byte, error) {
	buf := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(buf)
	buf.Grow(expected)

	// one byte past expected is enough to detect an oversized body
	limited := io.LimitReader(body, int64(expected)+1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &errs.CancelledError{ObjectID: objectID, Cause: err}
		}

		_, err := buf.ReadChunk(limited, readChunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &errs.CancelledError{ObjectID: objectID, Cause: ctxErr}
			}

			return nil, &errs.TransportError{Endpoint: endpoint, Cause: err}
		}
	}

	if buf.Len() != expected {
		return nil, &errs.TruncatedPayloadError{Expected: expected, Actual: buf.Len()}
	}

	return buf.Detach(), nil
}

// statusCause extracts a short error message from a failed response body.
func statusCause(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return nil
	}

	return errors.New(string(msg))
}
