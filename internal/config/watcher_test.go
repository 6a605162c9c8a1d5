package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolsmith.json")
	loader := NewLoader(path)
	require.NoError(t, loader.Save(DefaultConfig()))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(loader, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	updated := DefaultConfig()
	updated.Server.Port = 9100
	require.NoError(t, loader.Save(updated))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9100, cfg.Server.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("config reload was not observed")
	}
}

func TestWatcher_InvalidConfigKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolsmith.json")
	loader := NewLoader(path)
	require.NoError(t, loader.Save(DefaultConfig()))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(loader, func(cfg *Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// A config that fails validation must not reach the callback.
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 0}}`), 0644))

	select {
	case <-reloaded:
		t.Fatal("invalid config should not trigger the reload callback")
	case <-time.After(time.Second):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "toolsmith.json"))

	w, err := NewWatcher(loader, func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	assert.NoError(t, w.Stop())
	// Second stop must not panic on the closed channel.
	_ = w.Stop()
}
