// Package toolengine registers and executes named, schema-validated tools.
//
// Invariants:
// - Tool names are unique; re-registration under an existing name fails.
// - Arguments are schema-validated before a handler ever runs.
// - Failed invocations are never cached; only successes populate the cache.
//
// Usage:
//
//	reg := toolengine.NewRegistry(logger)
//	_ = reg.Register(toolengine.Descriptor{
//		Name:        "echo",
//		Description: "Echo input back",
//		InputSchema: map[string]interface{}{
//			"type":       "object",
//			"properties": map[string]interface{}{"text": map[string]interface{}{"type": "string"}},
//			"required":   []interface{}{"text"},
//		},
//	}, func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
//		return args["text"], nil
//	})
package toolengine
