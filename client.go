package colbin

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/colbin/catalog"
	"github.com/arloliu/colbin/config"
	"github.com/arloliu/colbin/decoder"
	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/internal/logging"
	"github.com/arloliu/colbin/internal/metrics"
	"github.com/arloliu/colbin/internal/options"
	"github.com/arloliu/colbin/schema"
	"github.com/arloliu/colbin/source"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Client owns the collaborators shared by every Object: the schema resolver
// and its descriptor cache, the payload source and the decoder.
// It is safe for concurrent use.
type Client struct {
	resolver SchemaResolver
	cache    *schema.Cache
	source   *source.Source
	decoder  *decoder.Decoder
	mapper   *schema.TypeMapper
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option = options.Option[*Client]

// WithResolver sets the schema resolver.
func WithResolver(r SchemaResolver) Option {
	return options.New(func(c *Client) error {
		if r == nil {
			return errors.New("schema resolver must not be nil")
		}
		c.resolver = r

		return nil
	})
}

// WithSource sets the payload source.
func WithSource(s *source.Source) Option {
	return options.NoError(func(c *Client) {
		c.source = s
	})
}

// WithDecoder sets the payload decoder.
func WithDecoder(d *decoder.Decoder) Option {
	return options.NoError(func(c *Client) {
		c.decoder = d
	})
}

// WithTypeMapper sets the type mapper used to build layouts. It must match
// the mapper of a source passed with WithSource.
func WithTypeMapper(m *schema.TypeMapper) Option {
	return options.New(func(c *Client) error {
		if m == nil {
			return errors.New("type mapper must not be nil")
		}
		c.mapper = m

		return nil
	})
}

// WithCache shares a descriptor cache between clients.
func WithCache(cache *schema.Cache) Option {
	return options.NoError(func(c *Client) {
		c.cache = cache
	})
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *Client) {
		c.logger = logger
	})
}

// WithMetrics registers colbin metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return options.NoError(func(c *Client) {
		c.metrics = metrics.New(reg)
	})
}

// NewClient creates a client. Collaborators not set through options default
// to the HTTP catalog resolver, a remote-only source and a big-endian decoder.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c.init()
}

// NewClientFromConfig creates a client wired from cfg. Options override the
// collaborators cfg would otherwise build.
func NewClientFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	c := &Client{}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	if c.logger == nil {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		c.logger = logger
	}
	if c.mapper == nil {
		c.mapper = schema.DefaultTypeMapper
	}

	httpClient := source.NewHTTPClient(cfg.HTTP, c.logger)

	if c.resolver == nil {
		c.resolver = catalog.NewHTTPResolver(httpClient, cfg.MetadataEndpoint, c.logger)
	}

	if c.decoder == nil {
		dec, err := decoder.New(
			decoder.WithByteOrder(cfg.ByteOrder),
			decoder.WithTimestampConversion(cfg.TimestampConversion),
		)
		if err != nil {
			return nil, err
		}
		c.decoder = dec
	}

	if c.source == nil {
		sourceOpts := []source.Option{
			source.WithRemote(source.NewRemote(httpClient, cfg.DataEndpoint)),
			source.WithClientID(cfg.ClientID),
			source.WithWriteThrough(cfg.WriteThrough),
			source.WithTypeMapper(c.mapper),
			source.WithLogger(c.logger),
			source.WithMetrics(c.metrics),
		}

		if cfg.LocalRoot != "" {
			store, err := source.NewLocalStore(cfg.LocalRoot, cfg.CacheExtension, cfg.Compression())
			if err != nil {
				return nil, err
			}
			sourceOpts = append(sourceOpts, source.WithLocalStore(store))
		}

		if cfg.AccountingEnabled {
			acct := source.NewHTTPAccountant(httpClient, cfg.AccountingEndpoint, c.logger, c.metrics)
			sourceOpts = append(sourceOpts, source.WithAccountant(acct))
		}

		src, err := source.New(sourceOpts...)
		if err != nil {
			return nil, err
		}
		c.source = src
	}

	return c.init()
}

func (c *Client) init() (*Client, error) {
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.mapper == nil {
		c.mapper = schema.DefaultTypeMapper
	}
	if c.cache == nil {
		c.cache = schema.NewCache()
	}
	if c.resolver == nil {
		c.resolver = catalog.NewHTTPResolver(nil, "", c.logger)
	}
	if c.decoder == nil {
		dec, err := decoder.New()
		if err != nil {
			return nil, err
		}
		c.decoder = dec
	}
	if c.source == nil {
		src, err := source.New(
			source.WithTypeMapper(c.mapper),
			source.WithLogger(c.logger),
			source.WithMetrics(c.metrics),
		)
		if err != nil {
			return nil, err
		}
		c.source = src
	}

	c.logger = logging.Component(c.logger, "client")

	return c, nil
}

// Object returns a facade for objectID. Nothing is resolved until first use.
func (c *Client) Object(objectID string) *Object {
	return &Object{client: c, id: objectID}
}

// Schema returns the descriptor of objectID, consulting the cache first.
// Only descriptors with a binary representation are cached.
//
// Returns:
//   - *schema.Object: The descriptor
//   - error: An error wrapping errs.ErrObjectNotFound, or a transient resolver error
func (c *Client) Schema(ctx context.Context, objectID string) (*schema.Object, error) {
	if obj, ok := c.cache.Get(objectID); ok {
		c.metrics.ObserveSchema(metrics.SchemaCached)
		c.logger.Debug("schema cache hit", zap.String("object_id", objectID))

		return obj, nil
	}

	obj, err := c.resolver.Resolve(ctx, objectID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			c.metrics.ObserveSchema(metrics.SchemaInvalid)
		} else {
			c.metrics.ObserveSchema(metrics.SchemaError)
		}

		return nil, fmt.Errorf("resolve schema of %s: %w", objectID, err)
	}

	if !obj.HasBinary() {
		c.metrics.ObserveSchema(metrics.SchemaInvalid)
		return obj, nil
	}

	c.cache.Put(objectID, obj)
	c.metrics.ObserveSchema(metrics.SchemaResolved)
	c.logger.Debug("schema resolved",
		zap.String("object_id", objectID),
		zap.Int("rows", obj.RowCount),
		zap.Int("columns", len(obj.Columns)),
	)

	return obj, nil
}

// Invalidate drops the cached descriptor of objectID.
func (c *Client) Invalidate(objectID string) {
	c.cache.Invalidate(objectID)
}

// Purge drops every cached descriptor.
func (c *Client) Purge() {
	c.cache.Purge()
}

// Source returns the payload source.
func (c *Client) Source() *source.Source {
	return c.source
}

// Close waits for pending usage events of the source's accountant until ctx ends.
func (c *Client) Close(ctx context.Context) error {
	closer, ok := c.source.Accountant().(interface {
		Close(ctx context.Context) error
	})
	if !ok {
		return nil
	}

	return closer.Close(ctx)
}
