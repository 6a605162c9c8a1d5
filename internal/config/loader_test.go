package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Path_Explicit(t *testing.T) {
	l := NewLoader("/tmp/custom.json")

	path, err := l.Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", path)
}

func TestLoader_Path_Default(t *testing.T) {
	l := NewLoader("")

	path, err := l.Path()
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Join(".toolsmith", "toolsmith.json"))
}

func TestLoader_Load_MissingFileGivesDefaults(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Tools.DefaultTimeout)

	// Derived paths are filled in even without a file.
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.Logging.File)
	assert.NotEmpty(t, cfg.Tools.WorkspaceDir)
}

func TestLoader_Load_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolsmith.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"host": "0.0.0.0", "port": 9000},
		"cache": {"enabled": false}
	}`), 0644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Cache.Enabled)

	// Unspecified fields keep their defaults.
	assert.Equal(t, 3, cfg.Tools.RetryAttempts)
}

func TestLoader_Load_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolsmith.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0644))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoader_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "toolsmith.json")
	l := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Tools.RetryAttempts = 7
	require.NoError(t, l.Save(cfg))

	loaded, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, 7, loaded.Tools.RetryAttempts)
	assert.Equal(t, cfg.Tools.DefaultTimeout, loaded.Tools.DefaultTimeout)
}
