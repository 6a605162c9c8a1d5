// Package coretools registers the baseline tools shipped with the server.
package coretools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calder/toolsmith/pkg/toolengine"
)

// Options configures core tool registration.
type Options struct {
	// WorkspaceDir roots all file_operations paths. Required when the
	// file_operations tool is registered.
	WorkspaceDir string

	// Defaults applied to descriptors that do not set their own policy.
	DefaultTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// RegisterCoreTools registers the built-in tools with explicit
// registration calls; registration order is the enumeration order.
func RegisterCoreTools(registry *toolengine.Registry, opts Options) error {
	if registry == nil {
		return errors.New("registry is required")
	}

	register := []func(Options) (toolengine.Descriptor, toolengine.Handler){
		echoTool,
		currentTimeTool,
		searchWebTool,
		fileOperationsTool,
	}

	for _, build := range register {
		desc, handler := build(opts)
		if desc.Timeout == 0 {
			desc.Timeout = opts.DefaultTimeout
		}
		if desc.RetryDelay == 0 {
			desc.RetryDelay = opts.RetryDelay
		}
		if err := registry.Register(desc, handler); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", desc.Name, err)
		}
	}
	return nil
}

func echoTool(Options) (toolengine.Descriptor, toolengine.Handler) {
	desc := toolengine.Descriptor{
		Name:        "echo",
		Description: "Echo the given text back to the caller.",
		Version:     "1.0.0",
		Tags:        []string{"utility"},
		InputSchema: objectSchema(map[string]interface{}{
			"text": map[string]interface{}{"type": "string", "description": "Text to echo"},
		}, "text"),
		OutputSchema: map[string]interface{}{"type": "string"},
		Cacheable:    true,
	}
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		text, _ := args["text"].(string)
		return text, nil
	}
	return desc, handler
}

func currentTimeTool(Options) (toolengine.Descriptor, toolengine.Handler) {
	desc := toolengine.Descriptor{
		Name:        "current_time",
		Description: "Get the current date and time.",
		Version:     "1.0.0",
		Tags:        []string{"utility", "time"},
		InputSchema: objectSchema(map[string]interface{}{}),
		OutputSchema: map[string]interface{}{
			"type":        "string",
			"description": "Current timestamp in RFC 3339 format",
		},
		// The result changes on every call; caching it would serve
		// stale timestamps for the full TTL.
		Cacheable: false,
	}
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return time.Now().Format(time.RFC3339), nil
	}
	return desc, handler
}

func searchWebTool(opts Options) (toolengine.Descriptor, toolengine.Handler) {
	desc := toolengine.Descriptor{
		Name:        "search_web",
		Description: "Search the web for information.",
		Version:     "1.0.0",
		Tags:        []string{"web", "search"},
		InputSchema: objectSchema(map[string]interface{}{
			"query":       map[string]interface{}{"type": "string", "description": "Search query"},
			"max_results": map[string]interface{}{"type": "integer", "description": "Maximum number of results"},
		}, "query"),
		OutputSchema: map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "object"},
		},
		Timeout:    30 * time.Second,
		MaxRetries: opts.RetryAttempts,
		Cacheable:  true,
	}
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		query, _ := args["query"].(string)
		maxResults := 5
		if n, ok := args["max_results"].(float64); ok && n > 0 {
			maxResults = int(n)
		}

		// Placeholder backend; a real provider plugs in here.
		results := []map[string]interface{}{
			{
				"title":   fmt.Sprintf("Search result for: %s", query),
				"url":     "https://example.com",
				"snippet": fmt.Sprintf("Information about %s", query),
			},
		}
		if len(results) > maxResults {
			results = results[:maxResults]
		}
		return results, nil
	}
	return desc, handler
}

func fileOperationsTool(opts Options) (toolengine.Descriptor, toolengine.Handler) {
	desc := toolengine.Descriptor{
		Name:        "file_operations",
		Description: "Perform file operations (read, write, list) inside the workspace.",
		Version:     "1.0.0",
		Tags:        []string{"file", "system"},
		InputSchema: objectSchema(map[string]interface{}{
			"operation": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{"read", "write", "list"},
			},
			"path":    map[string]interface{}{"type": "string", "description": "File path relative to the workspace"},
			"content": map[string]interface{}{"type": "string", "description": "File content (for write operation)"},
		}, "operation", "path"),
		OutputSchema: objectSchema(map[string]interface{}{
			"success": map[string]interface{}{"type": "boolean"},
			"data":    map[string]interface{}{"type": "string"},
			"error":   map[string]interface{}{"type": "string"},
		}),
		Timeout: 10 * time.Second,
		// Writes have side effects and reads must observe them.
		Cacheable: false,
	}
	handler := func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		operation, _ := args["operation"].(string)
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)

		resolved, err := resolveWorkspacePath(opts.WorkspaceDir, path)
		if err != nil {
			return opResult(false, "", err.Error()), nil
		}

		switch operation {
		case "read":
			data, err := os.ReadFile(resolved)
			if err != nil {
				return opResult(false, "", err.Error()), nil
			}
			return opResult(true, string(data), ""), nil

		case "write":
			if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
				return opResult(false, "", err.Error()), nil
			}
			if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
				return opResult(false, "", err.Error()), nil
			}
			return opResult(true, fmt.Sprintf("File written to %s", path), ""), nil

		case "list":
			entries, err := os.ReadDir(resolved)
			if err != nil {
				return opResult(false, "", err.Error()), nil
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			data, err := json.Marshal(names)
			if err != nil {
				return opResult(false, "", err.Error()), nil
			}
			return opResult(true, string(data), ""), nil

		default:
			return opResult(false, "", fmt.Sprintf("Unknown operation: %s", operation)), nil
		}
	}
	return desc, handler
}

func opResult(success bool, data, errMsg string) map[string]interface{} {
	return map[string]interface{}{
		"success": success,
		"data":    data,
		"error":   errMsg,
	}
}

// resolveWorkspacePath joins a caller-supplied path onto the workspace
// root and refuses escapes via .. or absolute paths.
func resolveWorkspacePath(workspaceDir, path string) (string, error) {
	if workspaceDir == "" {
		return "", errors.New("workspace directory is not configured")
	}
	if path == "" {
		return "", errors.New("path is required")
	}

	root, err := filepath.Abs(workspaceDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace: %w", err)
	}

	resolved := filepath.Join(root, filepath.Clean("/"+path))
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", path)
	}
	return resolved, nil
}
