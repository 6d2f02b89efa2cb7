// Package metrics defines the Prometheus collectors exported by colbin.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional *Metrics without checking it on every call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch origins, fetch results and schema lookup results used as label values.
const (
	OriginLocal  = "local"
	OriginRemote = "remote"

	ResultOK        = "ok"
	ResultError     = "error"
	ResultCancelled = "cancelled"

	SchemaCached   = "cached"
	SchemaResolved = "resolved"
	SchemaInvalid  = "invalid"
	SchemaError    = "error"
)

// Metrics holds all Prometheus metrics for payload fetching and decoding.
type Metrics struct {
	Fetches            *prometheus.CounterVec
	FetchedBytes       *prometheus.CounterVec
	DecodeDuration     prometheus.Histogram
	AccountingFailures prometheus.Counter
	SchemaResolutions  *prometheus.CounterVec
}

// New creates and registers all metrics with the provided registry.
func New(reg prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "colbin_payload_fetches_total",
		Help: "Payload fetches by origin and result",
	}, []string{"origin", "result"})

	fetchedBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "colbin_payload_bytes_total",
		Help: "Decompressed payload bytes fetched by origin",
	}, []string{"origin"})

	decodeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "colbin_decode_duration_seconds",
		Help:    "Time spent decoding payloads into tables",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	accountingFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "colbin_accounting_failures_total",
		Help: "Usage accounting events that could not be delivered",
	})

	schemaResolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "colbin_schema_resolutions_total",
		Help: "Schema lookups by result (cached, resolved, invalid, error)",
	}, []string{"result"})

	reg.MustRegister(fetches, fetchedBytes, decodeDuration, accountingFailures, schemaResolutions)

	return &Metrics{
		Fetches:            fetches,
		FetchedBytes:       fetchedBytes,
		DecodeDuration:     decodeDuration,
		AccountingFailures: accountingFailures,
		SchemaResolutions:  schemaResolutions,
	}
}

// ObserveFetch records one fetch and, on success, its payload size.
func (m *Metrics) ObserveFetch(origin, result string, size int) {
	if m == nil {
		return
	}

	m.Fetches.WithLabelValues(origin, result).Inc()
	if result == ResultOK {
		m.FetchedBytes.WithLabelValues(origin).Add(float64(size))
	}
}

// ObserveDecode records the duration of one decode started at start.
func (m *Metrics) ObserveDecode(start time.Time) {
	if m == nil {
		return
	}

	m.DecodeDuration.Observe(time.Since(start).Seconds())
}

// AccountingFailed records one undelivered accounting event.
func (m *Metrics) AccountingFailed() {
	if m == nil {
		return
	}

	m.AccountingFailures.Inc()
}

// ObserveSchema records one schema lookup.
func (m *Metrics) ObserveSchema(result string) {
	if m == nil {
		return
	}

	m.SchemaResolutions.WithLabelValues(result).Inc()
}
