package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/calltoken-server/internal/app"
	"github.com/vovakirdan/calltoken-server/internal/config"
	applog "github.com/vovakirdan/calltoken-server/internal/log"
	"github.com/vovakirdan/calltoken-server/internal/service/tokens"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "calltoken-server",
		Short:         "Issues call tokens for a live-streaming provider",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "optional YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration with secrets masked",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := loadConfig(flags)
				if err != nil {
					return err
				}
				return config.WriteYAML(cmd.OutOrStdout(), cfg.Redacted())
			},
		},
		newTokenCmd(flags),
	)

	return root
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig(flags *globalFlags) (config.Config, *zerolog.Logger, error) {
	bootLogger := applog.NewWithWriter(os.Stderr, "info", "console")

	cfg, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return cfg, nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Error().Err(err).Msg("invalid config")
		return cfg, nil, err
	}

	return cfg, applog.New(cfg.LogLevel, cfg.LogFormat), nil
}

func runServe(ctx context.Context, flags *globalFlags) error {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr()).Str("provider", cfg.Provider).Msg("starting calltoken server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var req tokens.Request

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a single call token and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			// stdout carries the JSON result
			logger := applog.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

			svc, err := app.NewTokenService(&cfg, nil, logger)
			if err != nil {
				return err
			}

			result, err := svc.Issue(cmd.Context(), req)
			if err != nil {
				if tokens.IsValidationError(err) {
					return fmt.Errorf("invalid request: %w", err)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"userId": result.UserID,
				"token":  result.Token,
				"callId": result.CallID,
			})
		},
	}

	cmd.Flags().StringVar(&req.Role, "role", "", "role: viewer, user or broadcaster")
	cmd.Flags().StringVar(&req.CallID, "call-id", config.DefaultCallID, "call ID, must be allow-listed")
	cmd.Flags().StringVar(&req.UserID, "user-id", "", "user ID (generated when empty, !anon for role user)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name, required for broadcasters")
	cmd.Flags().StringVar(&req.Image, "image", "", "avatar URL")

	return cmd
}
