package toolengine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Registry owns tool metadata and the mapping from name to handler.
// Read-mostly after startup: registration happens during process
// initialization, lookups run concurrently for the process lifetime.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
	log   zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
		log:   log,
	}
}

// Register stores a descriptor/handler pair and makes it visible to
// concurrent lookups. Fails if the name is taken or the descriptor is
// misconfigured. A zero Timeout or RetryDelay is treated as unset and
// replaced with the package default; only negative values are rejected
// as configuration errors. Schemas are compiled here, once, so invalid
// schema documents are rejected at startup rather than at call time.
func (r *Registry) Register(desc Descriptor, handler Handler) error {
	if err := validateDescriptor(desc, handler); err != nil {
		return err
	}

	if desc.Timeout == 0 {
		desc.Timeout = DefaultTimeout
	}
	if desc.RetryDelay == 0 {
		desc.RetryDelay = DefaultRetryDelay
	}

	inputSchema, err := compileSchema(desc.InputSchema)
	if err != nil {
		return NewConfigurationError(fmt.Sprintf("invalid input schema for tool '%s'", desc.Name), err)
	}
	outputSchema, err := compileSchema(desc.OutputSchema)
	if err != nil {
		return NewConfigurationError(fmt.Sprintf("invalid output schema for tool '%s'", desc.Name), err)
	}

	tool := &Tool{
		Descriptor:   desc,
		Handler:      handler,
		inputSchema:  inputSchema,
		outputSchema: outputSchema,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[desc.Name]; exists {
		return NewDuplicateToolError(desc.Name)
	}

	r.tools[desc.Name] = tool
	r.order = append(r.order, desc.Name)

	r.log.Info().
		Str("tool", desc.Name).
		Str("version", desc.Version).
		Dur("timeout", desc.Timeout).
		Int("max_retries", desc.MaxRetries).
		Bool("cacheable", desc.Cacheable).
		Msg("Tool registered")

	return nil
}

// Lookup resolves a tool by name.
func (r *Registry) Lookup(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, NewNotFoundError(name)
	}
	return tool, nil
}

// List returns descriptors in registration order. Safe to call
// concurrently with Register.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.tools[name].Descriptor)
	}
	return descriptors
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

func validateDescriptor(desc Descriptor, handler Handler) error {
	if desc.Name == "" {
		return NewConfigurationError("tool name cannot be empty", nil)
	}
	if desc.Description == "" {
		return NewConfigurationError(fmt.Sprintf("tool '%s' description cannot be empty", desc.Name), nil)
	}
	if handler == nil {
		return NewConfigurationError(fmt.Sprintf("tool '%s' handler cannot be nil", desc.Name), nil)
	}
	if desc.Timeout < 0 {
		return NewConfigurationError(fmt.Sprintf("tool '%s' timeout must be positive", desc.Name), nil)
	}
	if desc.MaxRetries < 0 {
		return NewConfigurationError(fmt.Sprintf("tool '%s' max retries cannot be negative", desc.Name), nil)
	}
	if desc.RetryDelay < 0 {
		return NewConfigurationError(fmt.Sprintf("tool '%s' retry delay cannot be negative", desc.Name), nil)
	}
	return nil
}
