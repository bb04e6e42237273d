package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/calltoken-server/internal/callengine"
	"github.com/vovakirdan/calltoken-server/internal/callengine/livekit"
	"github.com/vovakirdan/calltoken-server/internal/callengine/stream"
	"github.com/vovakirdan/calltoken-server/internal/config"
	"github.com/vovakirdan/calltoken-server/internal/metrics"
	"github.com/vovakirdan/calltoken-server/internal/service/tokens"
	transporthttp "github.com/vovakirdan/calltoken-server/internal/transport/http"
)

// App wires together the provider engine, token service and transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
// cfg must already be validated.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	m := metrics.New()

	svc, err := NewTokenService(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	server := transporthttp.NewServer(svc, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

// NewTokenService builds the token service backed by the configured provider.
// m may be nil.
func NewTokenService(cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) (*tokens.Service, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	var recorder callengine.Recorder
	if m != nil {
		recorder = m
	}
	instrumented := callengine.NewInstrumented(engine, recorder, logger)

	allowed := tokens.NewAllowList(cfg.AllowedCallIDs...)
	logger.Info().
		Str("provider", cfg.Provider).
		Strs("allowed_call_ids", allowed.IDs()).
		Dur("token_validity", cfg.TokenTTL()).
		Msg("token service initialized")

	return tokens.New(instrumented, allowed, cfg.TokenTTL(), tokens.WithLogger(logger)), nil
}

func newEngine(cfg *config.Config) (callengine.Engine, error) {
	switch cfg.Provider {
	case config.ProviderStream:
		return stream.New(cfg.APIKey, cfg.SecretKey,
			stream.WithBaseURL(cfg.StreamBaseURL),
			stream.WithHTTPClient(&stdhttp.Client{Timeout: cfg.ProviderTimeout}),
		), nil
	case config.ProviderLiveKit:
		return livekit.New(cfg.APIKey, cfg.SecretKey), nil
	default:
		return nil, fmt.Errorf("unknown call provider %q", cfg.Provider)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("server running")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
