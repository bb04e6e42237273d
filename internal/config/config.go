package config

import (
	"errors"
	"fmt"
	"time"
)

// Supported call providers.
const (
	ProviderStream  = "stream"
	ProviderLiveKit = "livekit"
)

// DefaultCallID is the livestream the service issues tokens for out of the box.
const DefaultCallID = "livestream_17475406-dedb-46db-b14b-854dd9254ee9"

// DefaultTokenValidity is the call token lifetime in seconds (24h).
const DefaultTokenValidity = 24 * 60 * 60

// ErrMissingCredentials is returned when the provider API key or secret is not set.
var ErrMissingCredentials = errors.New("APIKEY and SECRET_KEY are required environment variables")

// Config holds server configuration values.
type Config struct {
	APIKey          string        `mapstructure:"api_key" yaml:"api_key"`
	SecretKey       string        `mapstructure:"secret_key" yaml:"secret_key"`
	TokenValidity   int           `mapstructure:"token_validity" yaml:"token_validity"` // seconds
	Port            int           `mapstructure:"port" yaml:"port"`
	Provider        string        `mapstructure:"provider" yaml:"provider"`
	StreamBaseURL   string        `mapstructure:"stream_base_url" yaml:"stream_base_url"`
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" yaml:"provider_timeout"`
	AllowedCallIDs  []string      `mapstructure:"allowed_call_ids" yaml:"allowed_call_ids"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		TokenValidity:     DefaultTokenValidity,
		Port:              3000,
		Provider:          ProviderStream,
		StreamBaseURL:     "https://video.stream-io-api.com",
		ProviderTimeout:   10 * time.Second,
		AllowedCallIDs:    []string{DefaultCallID},
		LogLevel:          "info",
		LogFormat:         "console",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Addr returns the HTTP listen address derived from Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// TokenTTL returns the call token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenValidity) * time.Second
}

// Validate checks required values and normalizes the ones with fallbacks.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.SecretKey == "" {
		return ErrMissingCredentials
	}
	if c.TokenValidity <= 0 {
		c.TokenValidity = DefaultTokenValidity
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Provider {
	case ProviderStream, ProviderLiveKit:
	default:
		return fmt.Errorf("unknown call provider %q", c.Provider)
	}
	if len(c.AllowedCallIDs) == 0 {
		return errors.New("at least one allowed call ID is required")
	}
	return nil
}

// Redacted returns a copy safe to print, with credentials masked.
func (c Config) Redacted() Config {
	out := c
	out.APIKey = mask(c.APIKey)
	if c.SecretKey != "" {
		out.SecretKey = "****"
	}
	out.AllowedCallIDs = append([]string(nil), c.AllowedCallIDs...)
	return out
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return s[:4] + "****"
	}
}
