package toolengine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// executeWithPolicy runs a handler under the tool's timeout and retry
// policy. Each attempt gets its own deadline; on failure the policy waits
// a fixed delay before the next attempt. Both waits select on the parent
// context so a caller disconnecting or a process shutdown aborts the
// invocation immediately, including between attempts.
//
// maxRetries = 0 means exactly one attempt. The handler goroutine is not
// forcibly stopped on timeout; cancellation is cooperative through the
// attempt context.
func executeWithPolicy(ctx context.Context, tool *Tool, args map[string]interface{}, log zerolog.Logger) (interface{}, error) {
	desc := tool.Descriptor
	attempts := desc.MaxRetries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			log.Debug().
				Str("tool", desc.Name).
				Int("attempt", attempt+1).
				Dur("delay", desc.RetryDelay).
				Msg("Retrying tool execution")

			select {
			case <-time.After(desc.RetryDelay):
			case <-ctx.Done():
				return nil, NewExecutionError(desc.Name, attempt, ctx.Err())
			}
		}

		value, err := runAttempt(ctx, tool, args)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			// Parent cancelled; retrying is pointless.
			return nil, NewExecutionError(desc.Name, attempt+1, lastErr)
		}

		log.Warn().
			Str("tool", desc.Name).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Err(err).
			Msg("Tool attempt failed")
	}

	return nil, NewExecutionError(desc.Name, attempts, lastErr)
}

// runAttempt invokes the handler once under the per-attempt deadline.
func runAttempt(ctx context.Context, tool *Tool, args map[string]interface{}) (interface{}, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, tool.Descriptor.Timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		result, err := tool.Handler(attemptCtx, args)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- result
		}
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errChan:
		return nil, err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewTimeoutError(tool.Descriptor.Name, tool.Descriptor.Timeout)
	}
}
