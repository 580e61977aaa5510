package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// LoaderFunc compiles a rule file into a fresh Config. The Holder calls it
// for the initial load and on every reload; each call must build a new
// instance with its own arena.
type LoaderFunc func(path string) (*Config, error)

// Holder provides thread-safe access to a compiled configuration with hot
// reload support. A failed reload keeps the old configuration.
type Holder struct {
	mu       sync.RWMutex
	cfg      *Config
	path     string
	load     LoaderFunc
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	stopCh   chan struct{}
}

// NewHolder creates a holder and performs the initial compile.
func NewHolder(path string, load LoaderFunc, logger zerolog.Logger) (*Holder, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	cfg, err := load(absPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	logger.Info().
		Str("path", absPath).
		Str("config_id", cfg.ID().String()).
		Msg("rules compiled")

	return &Holder{
		cfg:    cfg,
		path:   absPath,
		load:   load,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// OnChange registers a callback invoked after a successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Reload recompiles the rule file. On failure the old configuration stays
// active; on success the old instance is closed after listeners run.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("recompiling rules")

	newCfg, err := h.load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("rule reload failed, keeping old configuration")
		return fmt.Errorf("reload rules: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.cfg
	h.cfg = newCfg
	listeners := h.onChange
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(newCfg)
	}

	oldCfg.Close()

	h.logger.Info().
		Str("config_id", newCfg.ID().String()).
		Interface("directives", newCfg.DirectiveCounts()).
		Msg("rules reloaded successfully")
	return nil
}

// WatchFile starts watching the rule file; changes trigger recompilation.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory; editors that save atomically replace the file.
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching rule file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, recompiling rules")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("rule file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}
