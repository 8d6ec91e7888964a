package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/cybor/internal/adapter/output"
	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/dbus"
	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/store"
)

// callTimeout bounds a single D-Bus round trip.
const callTimeout = 5 * time.Second

var statusOpts struct {
	format   string
	template string
	watch    bool
	clear    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and worker status",
	Long: `Show whether cybord is running and the state of its gesture and voice workers.

The status is read over D-Bus. When the daemon cannot be reached the last
snapshot it saved to ~/.local/share/cybor/status.json is shown instead.

Formats: text (default), plain, json, yaml, waybar. The plain format accepts a
Go template via --template, for example:

  cybor status --format plain --template '{{.State}} {{.Uptime}}'

For a Waybar custom module:

  "custom/cybor": {
    "exec": "cybor status --format waybar",
    "interval": 5,
    "return-type": "json"
  }`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "text",
		"Output format (text, plain, json, yaml, waybar)")
	statusCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Template for plain format")
	statusCmd.Flags().BoolVarP(&statusOpts.watch, "watch", "w", false,
		"Print the status again whenever the daemon saves it")
	statusCmd.Flags().BoolVar(&statusOpts.clear, "clear", false,
		"Remove the saved status of a stopped daemon")
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(output.FormatType(statusOpts.format), output.FormatterOptions{
		Template: statusOpts.template,
	})
	if err != nil {
		return err
	}

	statusPath, err := config.StatusPath()
	if err != nil {
		return fmt.Errorf("failed to get status path: %w", err)
	}
	statusFile := store.NewStatusFile(afero.NewOsFs(), statusPath)

	if statusOpts.clear {
		return clearStatus(cmd.Context(), statusFile)
	}

	show := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return formatter.FormatStatus(cmd.OutOrStdout(), fetchStatus(ctx, statusFile))
	}

	if err := show(); err != nil {
		return err
	}
	if !statusOpts.watch {
		return nil
	}
	return watchStatus(statusPath, show)
}

// fetchStatus asks the daemon over D-Bus and falls back to the status file.
func fetchStatus(ctx context.Context, statusFile *store.StatusFile) *model.Status {
	client, err := dbus.NewClient(ctx)
	if err == nil {
		st, err := client.Status(ctx)
		if err == nil {
			return st
		}
		logger.Debug("D-Bus status failed", "error", err)
	} else {
		logger.Debug("daemon not reachable over D-Bus", "error", err)
	}

	return statusFromFile(statusFile, processAlive)
}

// statusFromFile loads the saved snapshot. A snapshot claiming to run whose
// process is gone is reported as stopped.
func statusFromFile(statusFile *store.StatusFile, alive func(pid int) bool) *model.Status {
	st, err := statusFile.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoStatus) {
			logger.Warn("failed to read status file", "error", err)
		}
		return &model.Status{Running: false}
	}

	if st.Running && !alive(st.PID) {
		st.Running = false
		st.Gesture.Active = false
		st.Voice.Active = false
	}
	return st
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

func clearStatus(ctx context.Context, statusFile *store.StatusFile) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if _, err := dbus.NewClient(ctx); err == nil {
		return errors.New("cybord is running, stop it before clearing its status")
	}
	return statusFile.Remove()
}

// watchStatus re-renders the status on every status file write until interrupted.
func watchStatus(statusPath string, show func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := store.NewFileWatcher(statusPath, func() {
		if err := show(); err != nil {
			logger.Warn("failed to show status", "error", err)
		}
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to watch status file: %w", err)
	}
	if err := watcher.Start(); err != nil {
		_ = watcher.Stop()
		return fmt.Errorf("failed to watch status file: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	<-ctx.Done()
	return nil
}
