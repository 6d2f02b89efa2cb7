package source

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// HTTPConfig configures the HTTP client shared by remote fetches and usage accounting.
type HTTPConfig struct {
	// RequestTimeout bounds a whole request including the body read; zero
	// leaves the bound to the caller's context.
	RequestTimeout        time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout" validate:"gte=0"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" validate:"gte=0"`
	IdleConnTimeout       time.Duration `mapstructure:"idle_conn_timeout" validate:"gte=0"`
	KeepAlive             time.Duration `mapstructure:"keep_alive" validate:"gte=0"`
	MaxIdleConnsPerHost   int           `mapstructure:"max_idle_conns_per_host" validate:"gte=0"`
	EnableHTTP2           bool          `mapstructure:"enable_http2"`
}

// DefaultHTTPConfig returns the default HTTP settings.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		RequestTimeout:        0,
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		KeepAlive:             30 * time.Second,
		MaxIdleConnsPerHost:   8,
		EnableHTTP2:           true,
	}
}

// NewHTTPClient creates the HTTP client used for data and accounting requests.
func NewHTTPClient(cfg HTTPConfig, logger *zap.Logger) *http.Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}

			return nil
		},
	}
}
