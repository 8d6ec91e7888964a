package audio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/voice"
)

// queueSize bounds cues waiting to be played. Extra cues are dropped.
const queueSize = 8

// sink plays a sound file. *Player implements it.
type sink interface {
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
	ClearCache()
	Close()
}

// Manager maps voice cues to sound files and plays them off the caller's
// goroutine. It implements voice.Cues.
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
	player sink
	cfg    config.AudioConfig
	sounds map[voice.Cue]string

	queue  chan string
	stopCh chan struct{}
	doneCh chan struct{}
	active bool
}

// NewManager creates a new audio manager.
func NewManager(cfg config.AudioConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg config.AudioConfig, player sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger: logger,
		player: player,
		sounds: make(map[voice.Cue]string),
	}
	m.apply(cfg)
	return m
}

// apply loads volume and cue paths from cfg.
func (m *Manager) apply(cfg config.AudioConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = cfg
	m.player.SetVolume(float64(cfg.Volume) / 100.0)

	m.sounds = make(map[voice.Cue]string)
	for cue, path := range map[voice.Cue]string{
		voice.CueWake:  cfg.Sounds.Wake,
		voice.CueSleep: cfg.Sounds.Sleep,
		voice.CueAck:   cfg.Sounds.Ack,
		voice.CueError: cfg.Sounds.Error,
	} {
		if path == "" {
			continue
		}
		m.sounds[cue] = config.ExpandPath(path)
	}
}

// Start preloads the configured sounds and starts the playback goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return nil
	}
	m.active = true
	m.queue = make(chan string, queueSize)
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	m.preload()
	go m.loop(ctx)

	m.logger.Info("audio cues started", "enabled", m.Enabled(), "sounds", len(m.Sounds()))
	return nil
}

// Stop stops the playback goroutine and releases the speaker.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.active = false
	close(m.stopCh)
	done := m.doneCh
	m.mu.Unlock()

	<-done
	m.player.Close()
	m.logger.Debug("audio cues stopped")
}

func (m *Manager) loop(ctx context.Context) {
	defer close(m.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case path := <-m.queue:
			if err := m.player.Play(path); err != nil {
				m.logger.Warn("failed to play cue", "path", path, "error", err)
			}
		}
	}
}

// Play queues the sound for cue. It never blocks.
func (m *Manager) Play(cue voice.Cue) {
	m.mu.RLock()
	enabled := m.cfg.Enabled
	path, ok := m.sounds[cue]
	active := m.active
	queue := m.queue
	m.mu.RUnlock()

	if !enabled || !ok || !active {
		return
	}

	select {
	case queue <- path:
	default:
		m.logger.Debug("cue queue full, dropping", "cue", cue)
	}
}

// Enabled reports whether cues are played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Enabled
}

// Sounds returns the configured cue paths.
func (m *Manager) Sounds() map[voice.Cue]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sounds := make(map[voice.Cue]string, len(m.sounds))
	for k, v := range m.sounds {
		sounds[k] = v
	}
	return sounds
}

// UpdateConfig applies a hot-reloaded config and preloads the new sounds.
func (m *Manager) UpdateConfig(cfg config.AudioConfig) {
	m.player.ClearCache()
	m.apply(cfg)
	m.preload()
	m.logger.Debug("audio config updated")
}

func (m *Manager) preload() {
	if !m.Enabled() {
		return
	}
	for cue, path := range m.Sounds() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload cue", "cue", cue, "path", path, "error", err)
		}
	}
}
