package toolengine

import (
	"context"
	"time"
)

// Default policy values applied when a descriptor leaves them unset.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = time.Second
)

// Descriptor is the immutable metadata for a registered tool.
// It is copied into the registry at registration time and never
// mutated afterwards.
type Descriptor struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Version      string                 `json:"version"`
	Tags         []string               `json:"tags,omitempty"`
	InputSchema  map[string]interface{} `json:"input_schema"`
	OutputSchema map[string]interface{} `json:"output_schema,omitempty"`
	Timeout      time.Duration          `json:"timeout"`
	MaxRetries   int                    `json:"max_retries"`
	RetryDelay   time.Duration          `json:"retry_delay"`
	Cacheable    bool                   `json:"cacheable"`
}

// Handler is the executable unit bound to a descriptor. Arguments have
// already been validated against the descriptor's input schema when the
// handler runs.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool pairs a descriptor with its handler and the schemas compiled at
// registration time. Owned by the registry; callers receive a shared
// pointer and must not mutate it.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler

	inputSchema  *compiledSchema
	outputSchema *compiledSchema
}

// InvocationRequest is a single transient call into the engine.
type InvocationRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	RequestID string                 `json:"request_id"`
}

// InvocationResult is the outcome of a single invocation. Exactly one of
// Value and Err is meaningful; Duration is always set.
type InvocationResult struct {
	RequestID string        `json:"request_id"`
	Value     interface{}   `json:"value,omitempty"`
	Err       *Error        `json:"error,omitempty"`
	FromCache bool          `json:"from_cache"`
	Duration  time.Duration `json:"duration"`
}

// Success reports whether the invocation produced a value.
func (r InvocationResult) Success() bool {
	return r.Err == nil
}

// InvocationState tracks where an invocation is in its lifecycle.
type InvocationState string

const (
	StateReceived    InvocationState = "received"
	StateValidated   InvocationState = "validated"
	StateCacheCheck  InvocationState = "cache_check"
	StateCacheHit    InvocationState = "cache_hit"
	StateDispatching InvocationState = "dispatching"
	StateSucceeded   InvocationState = "succeeded"
	StateFailed      InvocationState = "failed"
)
