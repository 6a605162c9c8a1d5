// Package daemon assembles and runs the Toolsmith server process.
package daemon

import (
	"context"
	"fmt"
	"os"

	"github.com/calder/toolsmith/internal/config"
	"github.com/calder/toolsmith/internal/logger"
	"github.com/calder/toolsmith/internal/metrics"
	"github.com/calder/toolsmith/pkg/coretools"
	"github.com/calder/toolsmith/pkg/gateway"
	"github.com/calder/toolsmith/pkg/resultcache"
	"github.com/calder/toolsmith/pkg/toolengine"
	"github.com/robfig/cron/v3"
)

// Daemon wires the registry, cache, engine and gateway together and
// owns their lifecycle. Registry and cache are in-memory only; both are
// rebuilt from scratch at process start.
type Daemon struct {
	config  *config.Config
	loader  *config.Loader
	logger  *logger.Logger
	metrics *metrics.Metrics

	registry *toolengine.Registry
	cache    *resultcache.Cache
	engine   *toolengine.Engine
	gateway  *gateway.Server

	sweeper       *cron.Cron
	configWatcher *config.Watcher
}

// New constructs a daemon from validated configuration. Tool
// registration happens here, during process initialization, so the
// registry is complete before the gateway accepts its first request.
func New(cfg *config.Config, loader *config.Loader, log *logger.Logger) (*Daemon, error) {
	m := metrics.NewMetrics()
	registry := toolengine.NewRegistry(log.Zerolog())

	var cache *resultcache.Cache
	if cfg.Cache.Enabled {
		cache = resultcache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	engine, err := toolengine.NewEngine(toolengine.Config{
		Registry: registry,
		Cache:    cache,
		Metrics:  m,
		Logger:   log.Zerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if err := os.MkdirAll(cfg.Tools.WorkspaceDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}

	if err := coretools.RegisterCoreTools(registry, coretools.Options{
		WorkspaceDir:   cfg.Tools.WorkspaceDir,
		DefaultTimeout: cfg.Tools.DefaultTimeout,
		RetryAttempts:  cfg.Tools.RetryAttempts,
		RetryDelay:     cfg.Tools.RetryDelay,
	}); err != nil {
		return nil, fmt.Errorf("failed to register core tools: %w", err)
	}

	gw, err := gateway.NewServer(gateway.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Engine:  engine,
		Metrics: m,
		RateLimit: gateway.RateLimit{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			MaxConcurrent:     cfg.RateLimit.MaxConcurrent,
		},
		Logger: log.Zerolog(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	return &Daemon{
		config:   cfg,
		loader:   loader,
		logger:   log,
		metrics:  m,
		registry: registry,
		cache:    cache,
		engine:   engine,
		gateway:  gw,
	}, nil
}

// Registry exposes the tool registry for additional registrations
// before Run is called.
func (d *Daemon) Registry() *toolengine.Registry {
	return d.registry
}

// Run starts all services and blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.gateway.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	if err := d.startSweeper(); err != nil {
		return err
	}

	d.startConfigWatcher()

	d.logger.Info().
		Int("tools", d.registry.Count()).
		Str("addr", fmt.Sprintf("%s:%d", d.config.Server.Host, d.config.Server.Port)).
		Msg("Toolsmith daemon running")

	<-ctx.Done()
	return d.shutdown()
}

// startSweeper schedules the periodic cache purge. Lazy expiry in Get
// handles hot keys; the sweep reclaims entries nobody reads again.
func (d *Daemon) startSweeper() error {
	if d.cache == nil {
		return nil
	}

	d.sweeper = cron.New()
	_, err := d.sweeper.AddFunc(d.config.Cache.SweepSchedule, func() {
		removed := d.cache.Purge()
		d.metrics.CacheEntries.Set(float64(d.cache.Len()))
		if removed > 0 {
			d.logger.Debug().Int("removed", removed).Msg("Cache sweep completed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cache sweep schedule %q: %w", d.config.Cache.SweepSchedule, err)
	}
	d.sweeper.Start()
	return nil
}

// startConfigWatcher applies config file changes at runtime. Only the
// settings that are safe to change live are applied; everything else
// requires a restart.
func (d *Daemon) startConfigWatcher() {
	watcher, err := config.NewWatcher(d.loader, func(cfg *config.Config) {
		d.logger.SetLevel(cfg.Logging.Level)
		if d.cache != nil && cfg.Cache.TTL != d.config.Cache.TTL {
			// TTL changes apply only to new entries; drop the old ones so
			// nothing outlives the new policy.
			d.cache.Clear()
			d.metrics.CacheEntries.Set(0)
		}
		d.config.Logging = cfg.Logging
		d.config.Cache.TTL = cfg.Cache.TTL
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("Config watcher unavailable")
		return
	}
	if err := watcher.Start(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to start config watcher")
		return
	}
	d.configWatcher = watcher
}

func (d *Daemon) shutdown() error {
	d.logger.Info().Msg("Shutting down daemon")

	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to stop config watcher")
		}
	}

	if d.sweeper != nil {
		sweepCtx := d.sweeper.Stop()
		<-sweepCtx.Done()
	}

	if err := d.gateway.Stop(); err != nil {
		return fmt.Errorf("failed to stop gateway: %w", err)
	}

	d.logger.Info().Msg("Daemon stopped")
	return nil
}
