package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
)

const defaultDebounce = 500 * time.Millisecond

// ReloadFunc receives every configuration that was loaded successfully.
type ReloadFunc func(*config.Config)

// Watcher monitors the configuration file and applies the enable flag from
// every valid revision. Invalid revisions are logged and ignored.
type Watcher struct {
	configPath string
	flag       *Flag
	current    *config.Config
	onReload   ReloadFunc
	clock      clockwork.Clock
	debounce   time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	reloadCh chan struct{}
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c clockwork.Clock) WatcherOption {
	return func(w *Watcher) { w.clock = c }
}

// WithReloadFunc registers a callback for successful reloads.
func WithReloadFunc(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher for configPath. current is the configuration
// the process started with; reloads that change its version are rejected.
func NewWatcher(configPath string, current *config.Config, flag *Flag, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve config path").WithContext("path", configPath).Build()
	}
	w := &Watcher{
		configPath: absPath,
		flag:       flag,
		current:    current,
		clock:      clockwork.NewRealClock(),
		debounce:   defaultDebounce,
		logger:     slog.Default(),
		stopChan:   make(chan struct{}),
		reloadCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the directory holding the config file until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	// Editors replace files on save, so watch the directory rather than the file.
	dir := filepath.Dir(w.configPath)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, fmt.Sprintf("failed to watch config directory %s", dir)).Build()
	}
	w.watcher = fw

	w.logger.Info("Starting configuration watcher", slog.String("config_path", w.configPath))
	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Stop ends watching and waits for the loops to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.watcher == nil {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	err := w.watcher.Close()
	w.watcher = nil
	w.mu.Unlock()

	w.wg.Wait()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to close file watcher").Build()
	}
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	configFile := filepath.Base(w.configPath)

	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				w.logger.Debug("Config file change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
				w.triggerReload()
			case event.Has(fsnotify.Remove):
				w.logger.Warn("Config file removed", slog.String("file", event.Name))
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	var timer clockwork.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-w.stopChan:
			stop()
			return
		case <-w.reloadCh:
			stop()
			timer = w.clock.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

func (w *Watcher) triggerReload() {
	select {
	case w.reloadCh <- struct{}{}:
	default:
	}
}

// Reload loads the config file now and applies it.
func (w *Watcher) Reload() error {
	w.logger.Info("Reloading configuration", slog.String("config_path", w.configPath))

	cfg, err := config.Load(w.configPath)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.current != nil && cfg.Version != w.current.Version {
		w.mu.Unlock()
		return errors.ConfigError("configuration version change requires restart").
			WithContext("from", w.current.Version).WithContext("to", cfg.Version).Build()
	}
	w.current = cfg
	w.mu.Unlock()

	if w.flag.Set(cfg.Enabled) {
		w.logger.Info("Card linking toggled", slog.Bool("enabled", cfg.Enabled))
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
	w.logger.Info("Configuration reloaded successfully")
	return nil
}

// Current returns the most recently applied configuration.
func (w *Watcher) Current() *config.Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
