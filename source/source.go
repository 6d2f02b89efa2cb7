// Package source retrieves the binary payload of an object, either from a
// local cache file or from the remote tabular data service.
//
// The two paths apply a column selection at different points:
//
//   - A local cache file always holds the full-schema payload. Source reads
//     it whole, asserts that its size matches the full layout, and returns it
//     with FullSchema set; the caller applies the selection after decoding.
//   - A remote fetch sends the selection to the server, which serializes
//     only the selected columns in the selected order. FullSchema is set only
//     when the selection is every column in catalog order.
//
// Callers must decode Payload.Data with Payload.Layout and must not assume
// the two paths return the same bytes for the same selection.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/internal/logging"
	"github.com/arloliu/colbin/internal/metrics"
	"github.com/arloliu/colbin/internal/options"
	"github.com/arloliu/colbin/layout"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Origin tells where a payload came from.
type Origin string

const (
	OriginLocal  Origin = metrics.OriginLocal
	OriginRemote Origin = metrics.OriginRemote
)

// Payload is the raw result of a fetch.
type Payload struct {
	// Data is the column-major payload; it is owned by the caller.
	Data []byte
	// Origin tells whether Data came from the local cache or the remote service.
	Origin Origin
	// FullSchema reports whether Data holds every column in catalog order.
	// It is always true for local payloads and true for remote payloads only
	// when the full schema was requested.
	FullSchema bool
	// Layout is the layout Data was produced with.
	Layout layout.Layout
	// Path is the cache file read for local payloads.
	Path string
}

// ColumnNames returns the names of the columns held by Data, in payload order.
func (p *Payload) ColumnNames(obj *schema.Object, sel projection.Selection) []string {
	if p.FullSchema {
		return obj.ColumnNames()
	}

	return sel.Names(obj)
}

// Source fetches payloads. It is safe for concurrent use.
type Source struct {
	local        *LocalStore
	remote       *Remote
	accountant   Accountant
	mapper       *schema.TypeMapper
	clientID     string
	writeThrough bool
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// Option configures a Source.
type Option = options.Option[*Source]

// WithLocalStore enables the local cache lookup.
func WithLocalStore(store *LocalStore) Option {
	return options.NoError(func(s *Source) {
		s.local = store
	})
}

// WithRemote sets the remote fetcher. Without it a Remote for
// DefaultDataEndpoint using a default HTTP client is created.
func WithRemote(remote *Remote) Option {
	return options.NoError(func(s *Source) {
		s.remote = remote
	})
}

// WithAccountant sets the usage accountant notified after remote fetches.
func WithAccountant(a Accountant) Option {
	return options.NoError(func(s *Source) {
		s.accountant = a
	})
}

// WithTypeMapper sets the type mapper used to build layouts.
func WithTypeMapper(m *schema.TypeMapper) Option {
	return options.New(func(s *Source) error {
		if m == nil {
			return errors.New("type mapper must not be nil")
		}
		s.mapper = m

		return nil
	})
}

// WithClientID sets the client identity reported to usage accounting.
func WithClientID(id string) Option {
	return options.NoError(func(s *Source) {
		s.clientID = id
	})
}

// WithWriteThrough stores full-schema remote payloads in the local cache.
func WithWriteThrough(enabled bool) Option {
	return options.NoError(func(s *Source) {
		s.writeThrough = enabled
	})
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(s *Source) {
		s.logger = logger
	})
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return options.NoError(func(s *Source) {
		s.metrics = m
	})
}

// New creates a Source.
func New(opts ...Option) (*Source, error) {
	s := &Source{
		accountant: NopAccountant{},
		mapper:     schema.DefaultTypeMapper,
		logger:     zap.NewNop(),
	}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	s.logger = logging.Component(s.logger, "source")
	if s.remote == nil {
		s.remote = NewRemote(NewHTTPClient(DefaultHTTPConfig(), s.logger), DefaultDataEndpoint)
	}
	if s.accountant == nil {
		s.accountant = NopAccountant{}
	}
	if s.clientID == "" {
		s.clientID = uuid.NewString()
	}

	return s, nil
}

// ClientID returns the client identity reported to usage accounting.
func (s *Source) ClientID() string {
	return s.clientID
}

// Accountant returns the usage accountant notified after remote fetches.
func (s *Source) Accountant() Accountant {
	return s.accountant
}

// LocalStore returns the local store, or nil when local caching is disabled.
func (s *Source) LocalStore() *LocalStore {
	return s.local
}

// Fetch retrieves the payload of obj for the selected columns.
//
// A zero selection means all columns. The local cache is consulted first;
// on a miss the selected columns are fetched remotely.
//
// Returns:
//   - *Payload: The payload and the layout to decode it with
//   - error: *errs.TruncatedPayloadError for a cache file of the wrong size,
//     *errs.TransportError, *errs.CancelledError, or *errs.UnknownTypeError
//     when the schema holds an unmapped type
func (s *Source) Fetch(ctx context.Context, obj *schema.Object, sel projection.Selection) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, &errs.CancelledError{ObjectID: obj.ObjectID, Cause: err}
	}
	if sel.IsZero() {
		sel = projection.All(obj)
	}

	full, err := layout.Full(s.mapper, obj)
	if err != nil {
		return nil, err
	}

	if s.local != nil {
		payload, err := s.fetchLocal(obj, full)
		if err != nil || payload != nil {
			return payload, err
		}
	}

	return s.fetchRemote(ctx, obj, sel, full)
}

func (s *Source) fetchLocal(obj *schema.Object, full layout.Layout) (*Payload, error) {
	data, path, found, err := s.local.Read(obj)
	if !found {
		s.logger.Debug("local cache miss", zap.String("object_id", obj.ObjectID))
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveFetch(metrics.OriginLocal, metrics.ResultError, 0)
		return nil, err
	}

	// a cache file must hold every column; anything else cannot be re-selected
	if err := full.Check(len(data)); err != nil {
		s.metrics.ObserveFetch(metrics.OriginLocal, metrics.ResultError, 0)
		s.logger.Warn("cache file does not hold the full schema",
			zap.String("path", path),
			zap.Int("expected", full.Size()),
			zap.Int("actual", len(data)),
		)

		return nil, err
	}

	s.metrics.ObserveFetch(metrics.OriginLocal, metrics.ResultOK, len(data))
	s.logger.Debug("local cache hit", zap.String("object_id", obj.ObjectID), zap.String("path", path))

	return &Payload{Data: data, Origin: OriginLocal, FullSchema: true, Layout: full, Path: path}, nil
}

func (s *Source) fetchRemote(ctx context.Context, obj *schema.Object, sel projection.Selection, full layout.Layout) (*Payload, error) {
	selected, err := full.Select(sel.Indices())
	if err != nil {
		return nil, err
	}

	req := NewFetchRequest(obj, sel, selected)
	s.logger.Debug("fetching remote payload",
		zap.String("object_id", obj.ObjectID),
		zap.Ints("columns", req.ColumnNumbers),
		zap.Stringer("layout", selected),
	)

	data, err := s.remote.Fetch(ctx, obj.ObjectID, req, selected.Size())
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, errs.ErrCancelled) {
			result = metrics.ResultCancelled
		}
		s.metrics.ObserveFetch(metrics.OriginRemote, result, 0)

		return nil, err
	}
	s.metrics.ObserveFetch(metrics.OriginRemote, metrics.ResultOK, len(data))

	s.accountant.Record(ctx, UsageEvent{
		ObjectID: obj.ObjectID,
		Columns:  sel.Names(obj),
		ClientID: s.clientID,
	})

	isFull := sel.IsFull(obj)
	if isFull && s.writeThrough && s.local != nil {
		if _, err := s.store(obj, full, data); err != nil {
			s.logger.Warn("write-through cache store failed", zap.String("object_id", obj.ObjectID), zap.Error(err))
		}
	}

	return &Payload{Data: data, Origin: OriginRemote, FullSchema: isFull, Layout: selected}, nil
}

// Store writes a full-schema payload of obj to the local cache.
//
// Returns:
//   - string: The path written
//   - error: *errs.TruncatedPayloadError when data is not a full-schema
//     payload, or an error when no local store is configured
func (s *Source) Store(obj *schema.Object, data []byte) (string, error) {
	if s.local == nil {
		return "", errors.New("no local store configured")
	}

	full, err := layout.Full(s.mapper, obj)
	if err != nil {
		return "", err
	}

	return s.store(obj, full, data)
}

func (s *Source) store(obj *schema.Object, full layout.Layout, data []byte) (string, error) {
	if err := full.Check(len(data)); err != nil {
		return "", fmt.Errorf("refusing to cache partial payload: %w", err)
	}

	path, stats, err := s.local.Store(obj, data)
	if err != nil {
		return "", err
	}

	s.logger.Debug("stored cache file",
		zap.String("path", path),
		zap.Stringer("compression", stats.Algorithm),
		zap.Float64("ratio", stats.Ratio()),
	)

	return path, nil
}
