package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cardlink/internal/config"
)

func writeConfig(t *testing.T, path string, enabled bool) {
	t.Helper()
	body := "version: \"1.0\"\nenabled: false\n"
	if enabled {
		body = "version: \"1.0\"\nenabled: true\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestFlag(t *testing.T) {
	var nilFlag *Flag
	require.True(t, nilFlag.Enabled())

	f := NewFlag(true)
	require.True(t, f.Enabled())
	require.True(t, f.Set(false))
	require.False(t, f.Set(false))
	require.False(t, f.Enabled())
}

func TestReloadAppliesFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardlink.yaml")
	writeConfig(t, path, true)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	flag := NewFlag(cfg.Enabled)
	var reloads atomic.Int32
	w, err := NewWatcher(path, cfg, flag, WithReloadFunc(func(*config.Config) { reloads.Add(1) }))
	require.NoError(t, err)

	writeConfig(t, path, false)
	require.NoError(t, w.Reload())
	require.False(t, flag.Enabled())
	require.False(t, w.Current().Enabled)
	require.EqualValues(t, 1, reloads.Load())
}

func TestReloadKeepsFlagOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardlink.yaml")
	writeConfig(t, path, true)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	flag := NewFlag(true)
	w, err := NewWatcher(path, cfg, flag)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version: \"9\"\nenabled: false\n"), 0o600))
	require.Error(t, w.Reload())
	require.True(t, flag.Enabled())
	require.Same(t, cfg, w.Current())
}

func TestWatcherPicksUpFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardlink.yaml")
	writeConfig(t, path, true)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	flag := NewFlag(true)
	w, err := NewWatcher(path, cfg, flag, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { require.NoError(t, w.Stop()) }()

	writeConfig(t, path, false)
	require.Eventually(t, func() bool { return !flag.Enabled() }, 5*time.Second, 20*time.Millisecond)
}
