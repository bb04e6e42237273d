package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"api_key":             "APIKEY",
	"secret_key":          "SECRET_KEY",
	"token_validity":      "TOKEN_VALIDITY",
	"port":                "PORT",
	"provider":            "CALL_PROVIDER",
	"stream_base_url":     "STREAM_BASE_URL",
	"provider_timeout":    "PROVIDER_TIMEOUT",
	"allowed_call_ids":    "ALLOWED_CALL_IDS",
	"log_level":           "LOG_LEVEL",
	"log_format":          "LOG_FORMAT",
	"read_header_timeout": "READ_HEADER_TIMEOUT",
	"shutdown_timeout":    "SHUTDOWN_TIMEOUT",
}

// Load builds configuration from defaults, an optional config file and env vars.
// Precedence: defaults < config file < env vars.
// The result is not validated; callers run Validate before using it.
func Load(logger *zerolog.Logger, explicitPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("api_key", cfg.APIKey)
	v.SetDefault("secret_key", cfg.SecretKey)
	v.SetDefault("token_validity", cfg.TokenValidity)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("stream_base_url", cfg.StreamBaseURL)
	v.SetDefault("provider_timeout", cfg.ProviderTimeout)
	v.SetDefault("allowed_call_ids", cfg.AllowedCallIDs)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if logger != nil {
			logger.Info().Str("path", explicitPath).Msg("loaded config file")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AllowedCallIDs = splitCallIDs(cfg.AllowedCallIDs)

	return cfg, nil
}

// WriteYAML renders cfg as YAML.
func WriteYAML(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// splitCallIDs trims entries and drops empty ones, e.g. from "a, b,".
func splitCallIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
