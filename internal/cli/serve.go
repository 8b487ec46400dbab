package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/promptshield/promptshield/internal/audit"
	"github.com/promptshield/promptshield/internal/config"
	"github.com/promptshield/promptshield/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the guardrail HTTP server",
	Long: `Start an HTTP server that screens text on POST /v1/scan. The pipeline
comes from the config file and is hot-reloaded when the file changes.

  promptshield serve
  promptshield serve --config pipeline.yaml --listen :9000`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log.Level)

	var auditLog *audit.Logger
	if cfg.Server.AuditLog != "" {
		auditLog, err = audit.New(cfg.Server.AuditLog)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer auditLog.Close()
	}

	srv, err := server.New(server.Options{
		ConfigPath: configPath,
		Listen:     serveListen,
		Log:        log,
		Audit:      auditLog,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloader, err := server.NewReloader(srv, log)
	if err != nil {
		log.Warn().Err(err).Msg("config watching disabled")
	} else {
		go func() {
			if err := reloader.Run(ctx); err != nil {
				log.Error().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	return srv.ListenAndServe(ctx)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
