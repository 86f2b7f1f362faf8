package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrRequiresRestart reports a configuration change that only takes
// effect after a process restart.
var ErrRequiresRestart = errors.New("configuration change requires restart")

// Logger defines the contract for logging within the config layer.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ReloadCallback observes a successful configuration swap.
type ReloadCallback func(old, next *Config)

// ConfigManager hot-reloads the configuration file. Reloadable keys swap
// in live; static keys keep their loaded values and are reported with
// ErrRequiresRestart. An invalid file never replaces the running
// configuration.
type ConfigManager struct {
	path     string
	logger   Logger
	debounce time.Duration

	mu        sync.RWMutex
	current   *Config
	callbacks []ReloadCallback
	watcher   *fsnotify.Watcher

	done     chan struct{}
	stopOnce sync.Once
}

// NewConfigManager wraps an already-loaded configuration.
func NewConfigManager(path string, current *Config, logger Logger) *ConfigManager {
	return &ConfigManager{
		path:     path,
		logger:   logger,
		debounce: 200 * time.Millisecond,
		current:  current,
		done:     make(chan struct{}),
	}
}

// Current returns the live configuration.
func (m *ConfigManager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnReload registers a callback fired after each successful swap. A nil
// callback is ignored.
func (m *ConfigManager) OnReload(fn ReloadCallback) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch starts the background file watch. Editors typically replace the
// file instead of writing in place, so the parent directory is watched
// and events are filtered by name.
func (m *ConfigManager) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	m.mu.Lock()
	m.watcher = watcher
	m.mu.Unlock()

	go m.watchLoop(watcher)

	m.logger.Info("config file watch started", "path", m.path)
	return nil
}

func (m *ConfigManager) watchLoop(watcher *fsnotify.Watcher) {
	// Write bursts from editors are collapsed into one reload.
	var timer *time.Timer
	var pending <-chan time.Time

	target, err := filepath.Abs(m.path)
	if err != nil {
		target = m.path
	}

	for {
		select {
		case <-m.done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(m.debounce)
				pending = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(m.debounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			if err := m.TryReload(); err != nil && !errors.Is(err, ErrRequiresRestart) {
				m.logger.Error("config reload failed, keeping previous", "path", m.path, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Stop ends the watch. Safe to call more than once and without a prior
// Watch.
func (m *ConfigManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		watcher := m.watcher
		m.watcher = nil
		m.mu.Unlock()
		if watcher != nil {
			watcher.Close()
		}
	})
}

// TryReload loads the file and swaps the reloadable subset in. Static
// changes are logged per key and reported as ErrRequiresRestart; the
// reloadable part of the same edit still applies. Also serves manual
// reload requests from the ops endpoint.
func (m *ConfigManager) TryReload() error {
	candidate, err := Load(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.current

	static := staticChanges(old, candidate)
	reloadable := reloadableChanges(old, candidate)

	if len(static) == 0 && len(reloadable) == 0 {
		m.mu.Unlock()
		m.logger.Debug("config unchanged after reload", "path", m.path)
		return nil
	}

	next := candidate
	if len(static) > 0 {
		// Keep the running static sections, take the candidate's
		// reloadable ones.
		next = old.Clone()
		next.Handlers = candidate.Handlers
		next.Highlight.Keywords = append([]string(nil), candidate.Highlight.Keywords...)
		next.Logging.Level = candidate.Logging.Level
	}
	m.current = next
	callbacks := append([]ReloadCallback(nil), m.callbacks...)
	m.mu.Unlock()

	for _, key := range static {
		m.logger.Warn("config change requires restart",
			"key", key,
			"reason", restartReason(key),
		)
	}

	if len(reloadable) > 0 {
		m.logger.Info("configuration reloaded", "changed", reloadable)
		for _, fn := range callbacks {
			fn(old, next)
		}
	}

	if len(static) > 0 {
		return ErrRequiresRestart
	}
	return nil
}
