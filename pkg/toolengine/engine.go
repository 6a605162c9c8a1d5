package toolengine

import (
	"context"
	"time"

	"github.com/calder/toolsmith/internal/metrics"
	"github.com/calder/toolsmith/pkg/resultcache"
	"github.com/rs/zerolog"
)

// Engine orchestrates a tool invocation: lookup, input validation, cache
// check, dispatch under the retry/timeout policy, and cache population.
// Every inbound invocation runs on its caller's goroutine; the engine
// imposes no global invocation limit.
type Engine struct {
	registry *Registry
	cache    *resultcache.Cache
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// Config holds engine configuration. Registry is required; Cache and
// Metrics are optional (a nil cache disables result caching entirely).
type Config struct {
	Registry *Registry
	Cache    *resultcache.Cache
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// NewEngine creates an execution engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, NewConfigurationError("registry is required", nil)
	}
	return &Engine{
		registry: cfg.Registry,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
	}, nil
}

// Registry returns the registry this engine dispatches against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Invoke runs a single invocation through to a terminal state. The
// returned result always carries the request id and the total duration;
// failures are classified engine errors, never raw handler errors.
//
// Identical concurrent calls are not deduplicated in flight: a cache miss
// under concurrent identical requests may execute the handler more than
// once. Tools registered as cacheable are expected to be idempotent.
func (e *Engine) Invoke(ctx context.Context, req InvocationRequest) InvocationResult {
	start := time.Now()
	state := StateReceived

	log := e.log.With().
		Str("tool", req.Tool).
		Str("request_id", req.RequestID).
		Logger()

	tool, err := e.registry.Lookup(req.Tool)
	if err != nil {
		return e.fail(log, req, start, state, AsEngineError(err))
	}

	if err := ValidateInput(tool, req.Arguments); err != nil {
		return e.fail(log, req, start, state, AsEngineError(err))
	}
	state = StateValidated

	cacheKey := ""
	if e.cacheable(tool) {
		state = StateCacheCheck
		key, keyErr := resultcache.Key(tool.Descriptor.Name, tool.Descriptor.Version, req.Arguments)
		if keyErr != nil {
			// Unkeyable arguments: dispatch uncached rather than fail.
			log.Warn().Err(keyErr).Msg("Cache key derivation failed, skipping cache")
		} else {
			cacheKey = key
			if value, ok := e.cache.Get(cacheKey); ok {
				state = StateCacheHit
				log.Debug().Str("state", string(state)).Msg("Result served from cache")
				e.record(req.Tool, "cache_hit", start)
				if e.metrics != nil {
					e.metrics.CacheHitsTotal.Inc()
				}
				return InvocationResult{
					RequestID: req.RequestID,
					Value:     value,
					FromCache: true,
					Duration:  time.Since(start),
				}
			}
			if e.metrics != nil {
				e.metrics.CacheMissesTotal.Inc()
			}
		}
	}

	state = StateDispatching
	log.Debug().Str("state", string(state)).Msg("Dispatching tool")

	value, err := executeWithPolicy(ctx, tool, req.Arguments, log)
	if err != nil {
		return e.fail(log, req, start, state, AsEngineError(err))
	}

	if violations := ValidateOutput(tool, value); len(violations) > 0 {
		// Advisory: the caller is waiting on this result, so a shape
		// mismatch is logged and the value returned anyway.
		log.Warn().
			Interface("violations", violations).
			Msg("Tool output does not match declared schema")
	}

	if cacheKey != "" {
		e.cache.Put(cacheKey, value, resultcache.DefaultTTL)
		if e.metrics != nil {
			e.metrics.CacheEntries.Set(float64(e.cache.Len()))
		}
	}

	state = StateSucceeded
	duration := time.Since(start)
	log.Debug().
		Str("state", string(state)).
		Dur("duration", duration).
		Msg("Tool invocation succeeded")
	e.record(req.Tool, "success", start)

	return InvocationResult{
		RequestID: req.RequestID,
		Value:     value,
		Duration:  duration,
	}
}

func (e *Engine) cacheable(tool *Tool) bool {
	return e.cache != nil && tool.Descriptor.Cacheable
}

func (e *Engine) fail(log zerolog.Logger, req InvocationRequest, start time.Time, state InvocationState, engineErr *Error) InvocationResult {
	duration := time.Since(start)

	log.Error().
		Str("state", string(state)).
		Str("error_code", engineErr.Code).
		Dur("duration", duration).
		Err(engineErr).
		Msg("Tool invocation failed")

	e.record(req.Tool, "failure", start)
	if e.metrics != nil {
		e.metrics.InvocationErrorsTotal.WithLabelValues(req.Tool, engineErr.Code).Inc()
	}

	return InvocationResult{
		RequestID: req.RequestID,
		Err:       engineErr,
		Duration:  duration,
	}
}

func (e *Engine) record(tool, status string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.InvocationsTotal.WithLabelValues(tool, status).Inc()
	e.metrics.InvocationDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}
