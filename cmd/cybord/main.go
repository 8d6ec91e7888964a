// Package main is the entry point for the cybord gesture and voice assistant daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/jmylchreest/cybor/internal/assistant"
	"github.com/jmylchreest/cybor/internal/audio"
	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/daemon"
	"github.com/jmylchreest/cybor/internal/dbus"
	"github.com/jmylchreest/cybor/internal/gesture"
	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/store"
	"github.com/jmylchreest/cybor/internal/supervisor"
	"github.com/jmylchreest/cybor/internal/voice"
)

const appName = "cybord"

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/cybor/cybord.toml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("cybord version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	os.Exit(run(logger, *configPath))
}

// run starts the daemon and blocks until it exits. It returns the process exit code.
func run(logger *slog.Logger, configPath string) int {
	logger.Info("starting cybord", "version", version)

	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			logger.Error("failed to get config path", "error", err)
			return 1
		}
		configPath = p
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Internal notifications go to whatever notification daemon owns the bus name.
	desktop := dbus.NewDesktopNotifier(appName, logger)
	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetNotifyHandler(func(ctx context.Context, msg dbus.Message) error {
		_, err := desktop.Notify(ctx, msg)
		return err
	})
	applyNotifications(notifier, cfg.Notifications)

	audioManager := audio.NewManager(cfg.Audio, logger)
	if err := audioManager.Start(ctx); err != nil {
		logger.Warn("failed to start audio cues", "error", err)
	}
	defer audioManager.Stop()

	factory := assistant.NewFactory(cfg, assistant.Options{
		Cues:      audioManager,
		Responder: notifier,
		Logger:    logger,
	})

	sup := supervisor.New(cfg.Supervisor, factory.Build, logger)
	sup.SetVersion(version)

	if err := sup.Initialize(); err != nil {
		logger.Error("failed to initialize workers", "error", err)
		return 1
	}

	control := dbus.NewControlServer(&controlHandler{sup: sup, factory: factory}, logger)
	if err := control.Start(); err != nil {
		logger.Warn("D-Bus control unavailable, cybor CLI will fall back to the status file", "error", err)
	}
	defer func() {
		if err := control.Stop(); err != nil {
			logger.Warn("error stopping D-Bus control server", "error", err)
		}
	}()

	statusFile := openStatusFile(logger)
	sup.SetRestartCallback(notifier.NotifyWorkerRestarted)
	sup.SetChangeCallback(func(status model.Status) {
		if statusFile != nil {
			if err := statusFile.Save(status); err != nil {
				logger.Warn("failed to write status file", "error", err)
			}
		}
		if err := control.EmitStatus(status); err != nil {
			logger.Debug("status signal not sent", "error", err)
		}
	})

	configWatcher := daemon.NewConfigWatcher(configPath, logger)
	configWatcher.SetReloadCallback(func(newCfg *config.Config) {
		sup.UpdateConfig(newCfg.Supervisor)
		factory.UpdateConfig(newCfg)
		audioManager.UpdateConfig(newCfg.Audio)
		applyNotifications(notifier, newCfg.Notifications)
		notifier.NotifyConfigReloaded()
	})
	configWatcher.SetErrorCallback(notifier.NotifyConfigError)
	if err := configWatcher.Start(cfg); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}
	defer configWatcher.Stop()

	logStartup(logger, cfg)
	notifier.NotifyStartup(version)

	started := time.Now()
	if err := sup.Start(ctx); err != nil {
		logger.Error("supervisor failed", "error", err)
		return 1
	}

	uptime := sup.Uptime()
	logger.Info("cybord stopped",
		"uptime", uptime.Round(time.Second),
		"ran_for", strings.TrimSpace(humanize.RelTime(started, started.Add(uptime), "", "")),
		"session_id", sup.SessionID(),
	)
	return 0
}

// controlHandler serves the D-Bus control interface.
type controlHandler struct {
	sup     *supervisor.Supervisor
	factory *assistant.Factory
}

func (h *controlHandler) Status() model.Status {
	return h.sup.Status()
}

func (h *controlHandler) Dispatch(ctx context.Context, text string) (voice.Reply, error) {
	return h.factory.Dispatch(ctx, text)
}

func (h *controlHandler) RequestShutdown(reason string) {
	h.sup.RequestShutdown(reason)
}

func openStatusFile(logger *slog.Logger) *store.StatusFile {
	path, err := config.StatusPath()
	if err != nil {
		logger.Warn("status file disabled", "error", err)
		return nil
	}
	return store.NewStatusFile(afero.NewOsFs(), path)
}

func applyNotifications(n *daemon.InternalNotifier, cfg config.NotificationsConfig) {
	n.SetEnabled(cfg.Enabled)
	if d := cfg.MinInterval.Duration(); d > 0 {
		n.SetMinInterval(d)
	}
}

func logStartup(logger *slog.Logger, cfg *config.Config) {
	logger.Info("cybord ready",
		"mode", cfg.Supervisor.Mode,
		"gestures", len(gesture.Catalogue),
		"voice_commands", len(voice.Commands),
		"wake_word", cfg.Voice.WakeWord,
		"monitor_interval", cfg.Supervisor.MonitorInterval.Duration(),
	)
	for _, c := range voice.Commands {
		logger.Debug("voice command", "category", c.Category, "usage", c.Usage(), "description", c.Description)
	}
}
