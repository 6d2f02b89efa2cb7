package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/arloliu/colbin/internal/logging"
	"github.com/arloliu/colbin/internal/metrics"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultAccountingEndpoint receives usage accounting events.
const DefaultAccountingEndpoint = "https://cpauth.icos-cp.eu/logs/portaluse"

// defaultAccountingTimeout bounds one accounting POST.
const defaultAccountingTimeout = 10 * time.Second

// Accountant records data usage. Record must not block on I/O and must not
// report failures to the caller.
type Accountant interface {
	Record(ctx context.Context, event UsageEvent)
}

// NopAccountant discards every event.
type NopAccountant struct{}

// Record implements Accountant.
func (NopAccountant) Record(context.Context, UsageEvent) {}

// HTTPAccountant posts usage events to an accounting endpoint from detached
// goroutines. Delivery failures are logged and counted, never returned.
type HTTPAccountant struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHTTPAccountant creates an accountant posting to endpoint.
func NewHTTPAccountant(client *http.Client, endpoint string, logger *zap.Logger, m *metrics.Metrics) *HTTPAccountant {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultAccountingEndpoint
	}

	return &HTTPAccountant{
		client:   client,
		endpoint: endpoint,
		timeout:  defaultAccountingTimeout,
		logger:   logging.Component(logger, "accounting"),
		metrics:  m,
	}
}

// Record sends event in the background. The send outlives ctx cancellation
// but keeps its values, and is bounded by the accountant timeout.
// Events recorded after Close are dropped.
func (a *HTTPAccountant) Record(ctx context.Context, event UsageEvent) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Debug("accountant closed, dropping usage event", zap.String("object_id", event.ObjectID))

		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	go func() {
		defer a.wg.Done()
		defer cancel()

		if err := a.send(sendCtx, event); err != nil {
			a.metrics.AccountingFailed()
			a.logger.Warn("usage accounting failed",
				zap.String("object_id", event.ObjectID),
				zap.Error(err),
			)

			return
		}

		a.logger.Debug("usage recorded", zap.String("object_id", event.ObjectID), zap.Strings("columns", event.Columns))
	}()
}

func (a *HTTPAccountant) send(ctx context.Context, event UsageEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", a.endpoint, resp.StatusCode)
	}

	return nil
}

// Close stops accepting events and waits for in-flight ones until ctx ends.
// It is safe to call more than once.
func (a *HTTPAccountant) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
