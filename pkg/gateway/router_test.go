package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder/toolsmith/pkg/toolengine"
)

func TestRPCRouter_RegisterMethod(t *testing.T) {
	router := NewRPCRouter()

	t.Run("should register method successfully", func(t *testing.T) {
		handler := func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return "result", nil
		}

		err := router.RegisterMethod("test.method", handler)
		assert.NoError(t, err)
		assert.True(t, router.HasMethod("test.method"))
	})

	t.Run("should reject nil handler", func(t *testing.T) {
		err := router.RegisterMethod("test.nil", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "handler cannot be nil")
	})
}

func TestRPCRouter_ParseRequest(t *testing.T) {
	router := NewRPCRouter()

	t.Run("should parse valid request", func(t *testing.T) {
		data := []byte(`{"id":"1","method":"tools.list","jsonrpc":"2.0"}`)

		req, err := router.ParseRequest(data)
		require.NoError(t, err)
		assert.Equal(t, "1", req.ID)
		assert.Equal(t, "tools.list", req.Method)
	})

	t.Run("should default jsonrpc version", func(t *testing.T) {
		data := []byte(`{"id":"1","method":"tools.list"}`)

		req, err := router.ParseRequest(data)
		require.NoError(t, err)
		assert.Equal(t, "2.0", req.JSONRPC)
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		_, err := router.ParseRequest([]byte(`{not json`))
		require.Error(t, err)

		var rpcErr *RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, ParseError, rpcErr.Code)
	})

	t.Run("should reject missing id", func(t *testing.T) {
		_, err := router.ParseRequest([]byte(`{"method":"tools.list"}`))
		require.Error(t, err)

		var rpcErr *RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, InvalidRequest, rpcErr.Code)
	})

	t.Run("should reject missing method", func(t *testing.T) {
		_, err := router.ParseRequest([]byte(`{"id":"1"}`))
		require.Error(t, err)

		var rpcErr *RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, InvalidRequest, rpcErr.Code)
	})
}

func TestRPCRouter_RouteRequest(t *testing.T) {
	router := NewRPCRouter()

	require.NoError(t, router.RegisterMethod("test.echo", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return params["value"], nil
	}))
	require.NoError(t, router.RegisterMethod("test.fail", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return nil, errors.New("handler failed")
	}))

	t.Run("should route to handler and echo id", func(t *testing.T) {
		resp := router.RouteRequest(context.Background(), &RPCRequest{
			ID:     "abc",
			Method: "test.echo",
			Params: map[string]interface{}{"value": "hello"},
		})

		assert.Equal(t, "abc", resp.ID)
		assert.Equal(t, "hello", resp.Result)
		assert.Nil(t, resp.Error)
	})

	t.Run("should return method not found", func(t *testing.T) {
		resp := router.RouteRequest(context.Background(), &RPCRequest{
			ID:     "1",
			Method: "no.such.method",
		})

		require.NotNil(t, resp.Error)
		assert.Equal(t, MethodNotFound, resp.Error.Code)
		assert.Equal(t, "1", resp.ID)
	})

	t.Run("should wrap handler error", func(t *testing.T) {
		resp := router.RouteRequest(context.Background(), &RPCRequest{
			ID:     "1",
			Method: "test.fail",
		})

		require.NotNil(t, resp.Error)
		assert.Equal(t, InternalError, resp.Error.Code)
	})

	t.Run("should reject nil request", func(t *testing.T) {
		resp := router.RouteRequest(context.Background(), nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, InvalidRequest, resp.Error.Code)
	})
}

func TestToRPCError(t *testing.T) {
	t.Run("passes through RPC errors", func(t *testing.T) {
		original := &RPCError{Code: RateLimitExceeded, Message: "rate limit exceeded"}
		assert.Same(t, original, toRPCError(original))
	})

	t.Run("maps validation errors to invalid params", func(t *testing.T) {
		engineErr := toolengine.NewValidationError("echo", []toolengine.Violation{
			{Field: "text", Message: "text is required"},
		})

		rpcErr := toRPCError(engineErr)
		assert.Equal(t, InvalidParams, rpcErr.Code)

		detail, ok := rpcErr.Data.(ErrorDetail)
		require.True(t, ok)
		assert.Equal(t, toolengine.ErrCodeInvalidArguments, detail.Code)
		assert.Len(t, detail.Violations, 1)
	})

	t.Run("maps execution errors to internal error", func(t *testing.T) {
		engineErr := toolengine.NewExecutionError("flaky", 3, errors.New("boom"))

		rpcErr := toRPCError(engineErr)
		assert.Equal(t, InternalError, rpcErr.Code)

		detail, ok := rpcErr.Data.(ErrorDetail)
		require.True(t, ok)
		assert.Equal(t, toolengine.ErrCodeExecutionFailed, detail.Code)
		assert.Equal(t, 3, detail.Attempts)
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		rpcErr := toRPCError(errors.New("something broke"))
		assert.Equal(t, InternalError, rpcErr.Code)
	})
}
