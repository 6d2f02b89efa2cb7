// Package config loads colbin client settings from an optional YAML file and
// COLBIN_* environment variables.
//
// Keys are snake_case and nested sections are separated by a dot in files and
// by an underscore in the environment, e.g. COLBIN_HTTP_REQUEST_TIMEOUT=30s.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/colbin/catalog"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/internal/logging"
	"github.com/arloliu/colbin/source"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "COLBIN"

// Config is the complete client configuration.
type Config struct {
	// LocalRoot is the local cache directory; empty disables the local cache.
	LocalRoot string `mapstructure:"local_root" validate:"omitempty,dir"`
	// CacheExtension is the extension of uncompressed cache files.
	CacheExtension string `mapstructure:"cache_extension" validate:"required"`
	// CacheCompression selects the codec used when writing cache files.
	CacheCompression string `mapstructure:"cache_compression" validate:"oneof=none zstd s2 lz4"`
	// WriteThrough stores full-schema remote payloads in the local cache.
	WriteThrough bool `mapstructure:"write_through"`

	DataEndpoint       string `mapstructure:"data_endpoint" validate:"required,url"`
	MetadataEndpoint   string `mapstructure:"metadata_endpoint" validate:"required,url"`
	AccountingEndpoint string `mapstructure:"accounting_endpoint" validate:"required_if=AccountingEnabled true,omitempty,url"`
	AccountingEnabled  bool   `mapstructure:"accounting_enabled"`

	// ClientID identifies this client in usage events; empty generates a random UUID.
	ClientID string `mapstructure:"client_id"`

	ByteOrder           string `mapstructure:"byte_order" validate:"oneof=big little"`
	TimestampConversion bool   `mapstructure:"timestamp_conversion"`

	HTTP source.HTTPConfig `mapstructure:"http"`
	Log  logging.Config    `mapstructure:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CacheExtension:      source.DefaultExtension,
		CacheCompression:    "none",
		DataEndpoint:        source.DefaultDataEndpoint,
		MetadataEndpoint:    catalog.DefaultMetaEndpoint,
		AccountingEndpoint:  source.DefaultAccountingEndpoint,
		AccountingEnabled:   true,
		ByteOrder:           "big",
		TimestampConversion: true,
		HTTP:                source.DefaultHTTPConfig(),
		Log: logging.Config{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply.
//
// Parameters:
//   - path: Optional YAML file path
//
// Returns:
//   - *Config: The validated configuration, with ClientID filled in
//   - error: Read, decode or validation error
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("local_root", d.LocalRoot)
	v.SetDefault("cache_extension", d.CacheExtension)
	v.SetDefault("cache_compression", d.CacheCompression)
	v.SetDefault("write_through", d.WriteThrough)
	v.SetDefault("data_endpoint", d.DataEndpoint)
	v.SetDefault("metadata_endpoint", d.MetadataEndpoint)
	v.SetDefault("accounting_endpoint", d.AccountingEndpoint)
	v.SetDefault("accounting_enabled", d.AccountingEnabled)
	v.SetDefault("client_id", d.ClientID)
	v.SetDefault("byte_order", d.ByteOrder)
	v.SetDefault("timestamp_conversion", d.TimestampConversion)

	v.SetDefault("http.request_timeout", d.HTTP.RequestTimeout)
	v.SetDefault("http.dial_timeout", d.HTTP.DialTimeout)
	v.SetDefault("http.tls_handshake_timeout", d.HTTP.TLSHandshakeTimeout)
	v.SetDefault("http.response_header_timeout", d.HTTP.ResponseHeaderTimeout)
	v.SetDefault("http.idle_conn_timeout", d.HTTP.IdleConnTimeout)
	v.SetDefault("http.keep_alive", d.HTTP.KeepAlive)
	v.SetDefault("http.max_idle_conns_per_host", d.HTTP.MaxIdleConnsPerHost)
	v.SetDefault("http.enable_http2", d.HTTP.EnableHTTP2)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}

			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}

		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// Compression returns the configured cache codec.
func (c *Config) Compression() format.CompressionType {
	typ, ok := format.ParseCompression(strings.ToLower(c.CacheCompression))
	if !ok {
		return format.CompressionNone
	}

	return typ
}
