// Package server exposes the pipeline over HTTP: POST /v1/scan screens a
// payload and returns the full result, /healthz reports liveness. The
// active pipeline can be swapped at runtime when the config file changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/encoding/json"

	"github.com/promptshield/promptshield/guard"
	"github.com/promptshield/promptshield/guardrail"
	"github.com/promptshield/promptshield/internal/audit"
	"github.com/promptshield/promptshield/internal/config"
)

const maxScanBytes = 10 << 20

// Server holds the active pipeline and serves scan requests.
type Server struct {
	mu       sync.RWMutex
	pipeline *guardrail.Pipeline

	configPath string
	log        zerolog.Logger
	auditLog   *audit.Logger

	httpServer *http.Server
}

// Options configures a Server. Listen, when set, overrides the config
// file's listen address. Audit may be nil to disable the trail.
type Options struct {
	ConfigPath string
	Listen     string
	Log        zerolog.Logger
	Audit      *audit.Logger
}

// New builds a server from the config at opts.ConfigPath.
func New(opts Options) (*Server, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	p, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}

	addr := cfg.Server.Listen
	if opts.Listen != "" {
		addr = opts.Listen
	}

	s := &Server{
		pipeline:   p,
		configPath: opts.ConfigPath,
		log:        opts.Log,
		auditLog:   opts.Audit,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/scan", s.handleScan)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// Addr returns the listen address the server was configured with.
func (s *Server) Addr() string { return s.httpServer.Addr }

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Reload rebuilds the pipeline from the config file. The previous
// pipeline stays active if the new config fails to build.
func (s *Server) Reload() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	p, err := config.Build(cfg)
	if err != nil {
		return fmt.Errorf("rebuild pipeline: %w", err)
	}

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()

	s.log.Info().Int("steps", p.Len()).Msg("pipeline reloaded")
	return nil
}

func (s *Server) current() *guardrail.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// Handler exposes the server's mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxScanBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	text, _ := guard.ExtractText(body)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty request body"})
		return
	}

	start := time.Now()
	res := s.current().Run(text)

	s.log.Info().
		Str("action", string(res.ActionTaken)).
		Bool("valid", res.IsValid).
		Int("findings", len(res.Findings)).
		Dur("elapsed", time.Since(start)).
		Msg("scan")

	if s.auditLog != nil {
		if err := s.auditLog.Log("server", res); err != nil {
			s.log.Error().Err(err).Msg("audit write failed")
		}
	}

	status := http.StatusOK
	if res.Blocked() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
