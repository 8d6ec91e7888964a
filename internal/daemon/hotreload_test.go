package daemon

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cybord.toml")
	writeConfig(t, path, "[supervisor]\nmode = \"desk\"\n")

	initial, err := config.Load(path)
	require.NoError(t, err)

	w := NewConfigWatcher(path, nil)
	w.delay = 50 * time.Millisecond

	var reloaded atomic.Pointer[config.Config]
	w.SetReloadCallback(func(cfg *config.Config) { reloaded.Store(cfg) })

	require.NoError(t, w.Start(initial))
	defer w.Stop()

	writeConfig(t, path, "[supervisor]\nmode = \"laptop\"\n")

	require.Eventually(t, func() bool {
		cfg := reloaded.Load()
		return cfg != nil && cfg.Supervisor.Mode == "laptop"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "laptop", w.GetCurrentConfig().Supervisor.Mode)
}

func TestConfigWatcher_InvalidKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cybord.toml")
	writeConfig(t, path, "[supervisor]\nmode = \"desk\"\n")

	initial, err := config.Load(path)
	require.NoError(t, err)

	w := NewConfigWatcher(path, nil)
	w.delay = 50 * time.Millisecond

	var failures atomic.Int32
	w.SetErrorCallback(func(error) { failures.Add(1) })

	require.NoError(t, w.Start(initial))
	defer w.Stop()

	writeConfig(t, path, "[audio]\nvolume = 250\n")

	require.Eventually(t, func() bool { return failures.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "desk", w.GetCurrentConfig().Supervisor.Mode)
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	w := NewConfigWatcher(filepath.Join(t.TempDir(), "cybord.toml"), nil)
	require.NoError(t, w.Start(config.DefaultConfig()))
	require.NoError(t, w.Start(config.DefaultConfig()))

	w.Stop()
	w.Stop()
}
