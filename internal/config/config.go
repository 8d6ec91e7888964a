// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultMode                = "standard"
	DefaultMonitorInterval     = 1 * time.Second
	DefaultStatusInterval      = 5 * time.Minute
	DefaultShutdownGrace       = 2 * time.Second
	DefaultConfidenceThreshold = 0.8
	DefaultSmoothing           = 0.5
	DefaultScreenWidth         = 1920
	DefaultScreenHeight        = 1080
	DefaultScrollStep          = 0.05
	DefaultAdjustStep          = 0.05
	DefaultNeutralHold         = 1500 * time.Millisecond
	DefaultPointerCommand      = "xdotool"
	DefaultWakeWord            = "cybor"
	DefaultOpenCommand         = "xdg-open"
	DefaultSearchURL           = "https://www.google.com/search?q=%s"
	DefaultMapsURL             = "https://www.google.com/maps/place/%s"
	DefaultVolume              = 80
	DefaultNotifyInterval      = 5 * time.Second
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for cybord.
// Loaded from ~/.config/cybor/cybord.toml
type Config struct {
	Supervisor    SupervisorConfig    `toml:"supervisor"`
	Gesture       GestureConfig       `toml:"gesture"`
	Voice         VoiceConfig         `toml:"voice"`
	Audio         AudioConfig         `toml:"audio"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// SupervisorConfig contains the worker supervision settings.
type SupervisorConfig struct {
	Mode            string   `toml:"mode"`             // Operating mode label shown in status
	MonitorInterval Duration `toml:"monitor_interval"` // Time between liveness checks
	StatusInterval  Duration `toml:"status_interval"`  // Time between status log lines
	ShutdownGrace   Duration `toml:"shutdown_grace"`   // How long shutdown waits for workers to return
}

// GestureConfig contains gesture worker settings.
type GestureConfig struct {
	Command             []string `toml:"command"`         // Landmark detector emitting JSON frames on stdout
	PointerCommand      string   `toml:"pointer_command"` // xdotool compatible binary
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	Smoothing           float64  `toml:"smoothing"` // 0 = raw, closer to 1 = smoother
	ScreenWidth         int      `toml:"screen_width"`
	ScreenHeight        int      `toml:"screen_height"`
	ScrollStep          float64  `toml:"scroll_step"` // Normalised hand travel per scroll click
	AdjustStep          float64  `toml:"adjust_step"` // Normalised hand travel per volume/brightness step
	NeutralHold         Duration `toml:"neutral_hold"`
	WakeVoiceOnNeutral  bool     `toml:"wake_voice_on_neutral"`
	StartSuspended      bool     `toml:"start_suspended"`
}

// VoiceConfig contains voice worker settings.
type VoiceConfig struct {
	Command     []string `toml:"command"` // Recognizer emitting one transcript per stdout line
	WakeWord    string   `toml:"wake_word"`
	StartAsleep bool     `toml:"start_asleep"`
	OpenCommand string   `toml:"open_command"`
	SearchURL   string   `toml:"search_url"` // %s is replaced with the escaped query
	MapsURL     string   `toml:"maps_url"`   // %s is replaced with the escaped place
	HomeDir     string   `toml:"home_dir"`   // Starting directory for file navigation
}

// AudioConfig contains audio cue settings.
type AudioConfig struct {
	Enabled bool      `toml:"enabled"`
	Volume  int       `toml:"volume"` // 0-100
	Sounds  CueSounds `toml:"sounds"`
}

// CueSounds contains sound file paths per voice cue.
type CueSounds struct {
	Wake  string `toml:"wake"`
	Sleep string `toml:"sleep"`
	Ack   string `toml:"ack"`
	Error string `toml:"error"`
}

// NotificationsConfig contains desktop notification settings.
type NotificationsConfig struct {
	Enabled     bool     `toml:"enabled"`
	MinInterval Duration `toml:"min_interval"` // Minimum time between identical notifications
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Supervisor: SupervisorConfig{
			Mode:            DefaultMode,
			MonitorInterval: Duration(DefaultMonitorInterval),
			StatusInterval:  Duration(DefaultStatusInterval),
			ShutdownGrace:   Duration(DefaultShutdownGrace),
		},
		Gesture: GestureConfig{
			Command:             []string{"cybor-landmarks"},
			PointerCommand:      DefaultPointerCommand,
			ConfidenceThreshold: DefaultConfidenceThreshold,
			Smoothing:           DefaultSmoothing,
			ScreenWidth:         DefaultScreenWidth,
			ScreenHeight:        DefaultScreenHeight,
			ScrollStep:          DefaultScrollStep,
			AdjustStep:          DefaultAdjustStep,
			NeutralHold:         Duration(DefaultNeutralHold),
			WakeVoiceOnNeutral:  true,
		},
		Voice: VoiceConfig{
			Command:     []string{"cybor-transcribe"},
			WakeWord:    DefaultWakeWord,
			OpenCommand: DefaultOpenCommand,
			SearchURL:   DefaultSearchURL,
			MapsURL:     DefaultMapsURL,
			HomeDir:     "~",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  DefaultVolume,
		},
		Notifications: NotificationsConfig{
			Enabled:     true,
			MinInterval: Duration(DefaultNotifyInterval),
		},
	}
}

// ConfigPath returns the path to the daemon config file.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cybor", "cybord.toml"), nil
}

// DataDir returns the path to the cybor data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "cybor"), nil
}

// StatusPath returns the path to the status snapshot file.
func StatusPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "status.json"), nil
}

// Load loads the configuration from path.
// If path is empty, uses the default config path.
// Returns the default configuration if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
// If path is empty, uses the default config path.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Supervisor.Mode) == "" {
		return errors.New("supervisor.mode must not be empty")
	}
	if c.Supervisor.MonitorInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("supervisor.monitor_interval must be at least 10ms, got %s", c.Supervisor.MonitorInterval.Duration())
	}
	if c.Supervisor.StatusInterval.Duration() < 0 {
		return fmt.Errorf("supervisor.status_interval must not be negative, got %s", c.Supervisor.StatusInterval.Duration())
	}
	if c.Supervisor.ShutdownGrace.Duration() < 0 {
		return fmt.Errorf("supervisor.shutdown_grace must not be negative, got %s", c.Supervisor.ShutdownGrace.Duration())
	}

	g := c.Gesture
	if g.ConfidenceThreshold < 0 || g.ConfidenceThreshold > 1 {
		return fmt.Errorf("gesture.confidence_threshold must be between 0 and 1, got %v", g.ConfidenceThreshold)
	}
	if g.Smoothing < 0 || g.Smoothing >= 1 {
		return fmt.Errorf("gesture.smoothing must be in [0, 1), got %v", g.Smoothing)
	}
	if g.ScreenWidth <= 0 || g.ScreenHeight <= 0 {
		return fmt.Errorf("gesture screen size must be positive, got %dx%d", g.ScreenWidth, g.ScreenHeight)
	}
	if g.ScrollStep <= 0 || g.AdjustStep <= 0 {
		return errors.New("gesture.scroll_step and gesture.adjust_step must be positive")
	}

	if strings.TrimSpace(c.Voice.WakeWord) == "" {
		return errors.New("voice.wake_word must not be empty")
	}
	if !strings.Contains(c.Voice.SearchURL, "%s") {
		return fmt.Errorf("voice.search_url must contain %%s, got %q", c.Voice.SearchURL)
	}
	if !strings.Contains(c.Voice.MapsURL, "%s") {
		return fmt.Errorf("voice.maps_url must contain %%s, got %q", c.Voice.MapsURL)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
