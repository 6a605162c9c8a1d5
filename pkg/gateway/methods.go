package gateway

import (
	"context"
	"fmt"

	"github.com/calder/toolsmith/pkg/toolengine"
	"github.com/google/uuid"
)

// registerBuiltinMethods registers all built-in RPC methods
func (s *Server) registerBuiltinMethods() {
	_ = s.router.RegisterMethod("tools.call", s.handleToolsCall)
	_ = s.router.RegisterMethod("tools.list", s.handleToolsList)
	_ = s.router.RegisterMethod("system.health", s.handleSystemHealth)
}

// handleToolsCall handles the tools.call RPC method
func (s *Server) handleToolsCall(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return nil, &RPCError{
			Code:    InvalidParams,
			Message: "name parameter is required and must be a string",
		}
	}

	arguments := map[string]interface{}{}
	if raw, ok := params["arguments"]; ok {
		args, ok := raw.(map[string]interface{})
		if !ok {
			return nil, &RPCError{
				Code:    InvalidParams,
				Message: "arguments parameter must be an object",
			}
		}
		arguments = args
	}

	// The correlation id is caller-supplied and opaque; generate one only
	// when absent so the result always carries something traceable.
	requestID, _ := params["request_id"].(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result := s.engine.Invoke(ctx, toolengine.InvocationRequest{
		Tool:      name,
		Arguments: arguments,
		RequestID: requestID,
	})
	if !result.Success() {
		return nil, result.Err
	}

	return map[string]interface{}{
		"request_id":  result.RequestID,
		"result":      result.Value,
		"from_cache":  result.FromCache,
		"duration_ms": result.Duration.Milliseconds(),
	}, nil
}

// handleToolsList handles the tools.list RPC method
func (s *Server) handleToolsList(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"tools": descriptorsPayload(s.engine.Registry().List()),
	}, nil
}

// handleSystemHealth handles the system.health RPC method
func (s *Server) handleSystemHealth(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"status":             "healthy",
		"active_connections": s.clients.Count(),
		"registered_tools":   s.engine.Registry().Count(),
	}, nil
}

// descriptorsPayload renders registry descriptors for discovery.
func descriptorsPayload(descriptors []toolengine.Descriptor) []map[string]interface{} {
	tools := make([]map[string]interface{}, 0, len(descriptors))
	for _, desc := range descriptors {
		tools = append(tools, map[string]interface{}{
			"name":          desc.Name,
			"description":   desc.Description,
			"version":       desc.Version,
			"tags":          desc.Tags,
			"input_schema":  desc.InputSchema,
			"output_schema": desc.OutputSchema,
			"timeout":       fmt.Sprintf("%v", desc.Timeout),
			"cacheable":     desc.Cacheable,
		})
	}
	return tools
}
