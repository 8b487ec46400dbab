package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Reloader watches the config file and hot-swaps the pipeline on change.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
	log     zerolog.Logger
}

// NewReloader creates a file watcher for the server's config file. A
// missing config file is not watched; the server keeps its defaults.
func NewReloader(server *Server, log zerolog.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if _, err := os.Stat(server.configPath); err == nil {
		if err := watcher.Add(server.configPath); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %q: %w", server.configPath, err)
		}
	}

	return &Reloader{watcher: watcher, server: server, log: log}, nil
}

// Run blocks until ctx is cancelled, rebuilding the pipeline after each
// burst of writes. Reloads are debounced so editors that write in
// several steps trigger a single rebuild.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := r.server.Reload(); err != nil {
						r.log.Error().Err(err).Msg("hot-reload failed, keeping previous pipeline")
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error().Err(err).Msg("file watcher error")
		}
	}
}
