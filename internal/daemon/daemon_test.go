package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/toolsmith/internal/config"
	"github.com/calder/toolsmith/internal/logger"
	"github.com/calder/toolsmith/pkg/toolengine"
)

func testDaemon(t *testing.T) *Daemon {
	t.Helper()

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Tools.WorkspaceDir = filepath.Join(dir, "workspace")
	cfg.Logging.Console = false
	cfg.Logging.File = filepath.Join(dir, "test.log")

	log, err := logger.New(logger.Config{Level: "error", File: cfg.Logging.File})
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	d, err := New(cfg, config.NewLoader(filepath.Join(dir, "toolsmith.json")), log)
	require.NoError(t, err)
	return d
}

func TestNew_RegistersCoreTools(t *testing.T) {
	d := testDaemon(t)

	names := make([]string, 0)
	for _, desc := range d.Registry().List() {
		names = append(names, desc.Name)
	}
	assert.Equal(t, []string{"echo", "current_time", "search_web", "file_operations"}, names)
}

func TestNew_AllowsAdditionalRegistrations(t *testing.T) {
	d := testDaemon(t)

	err := d.Registry().Register(toolengine.Descriptor{
		Name:        "custom",
		Description: "Added after assembly",
	}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, d.Registry().Count())
}

func TestNew_CacheDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Tools.WorkspaceDir = filepath.Join(dir, "workspace")
	cfg.Logging.Console = false
	cfg.Logging.File = filepath.Join(dir, "test.log")

	log, err := logger.New(logger.Config{Level: "error", File: cfg.Logging.File})
	require.NoError(t, err)
	defer log.Close()

	d, err := New(cfg, config.NewLoader(filepath.Join(dir, "toolsmith.json")), log)
	require.NoError(t, err)
	assert.Nil(t, d.cache)
}
