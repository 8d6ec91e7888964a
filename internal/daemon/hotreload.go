package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/store"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 200 * time.Millisecond

// ConfigWatcher watches the config file for changes and validates new configs.
// Invalid configs are reported through the error callback and the last valid
// config stays current.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath    string
	currentConfig *config.Config
	delay         time.Duration
	timer         *time.Timer

	onReloadCallback func(newConfig *config.Config)
	onErrorCallback  func(err error)

	watcher *store.FileWatcher
}

// NewConfigWatcher creates a ConfigWatcher for configPath.
func NewConfigWatcher(configPath string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: configPath,
		delay:      reloadDelay,
	}
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching the config file for changes.
func (w *ConfigWatcher) Start(initialConfig *config.Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}
	w.currentConfig = initialConfig

	watcher, err := store.NewFileWatcher(w.configPath, w.scheduleReload, w.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		_ = watcher.Stop()
		return err
	}
	w.watcher = watcher

	w.logger.Debug("config watcher started", "path", w.configPath)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	watcher := w.watcher
	w.watcher = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if watcher == nil {
		return
	}
	if err := watcher.Stop(); err != nil {
		w.logger.Debug("failed to close config watcher", "error", err)
	}
	w.logger.Debug("config watcher stopped")
}

// GetCurrentConfig returns the current valid configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

// reload loads and validates the config file, then calls the matching callback.
func (w *ConfigWatcher) reload() {
	cfg, err := config.Load(w.configPath)

	w.mu.Lock()
	onReload, onError := w.onReloadCallback, w.onErrorCallback
	if err == nil {
		w.currentConfig = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", "path", w.configPath, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", w.configPath)
	if onReload != nil {
		onReload(cfg)
	}
}
