package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/calder/toolsmith/pkg/toolengine"
	"github.com/gorilla/websocket"
)

// RPCRequest represents a JSON-RPC 2.0 request
type RPCRequest struct {
	ID      string                 `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
	JSONRPC string                 `json:"jsonrpc"`
}

// RPCResponse represents a JSON-RPC 2.0 response
type RPCResponse struct {
	ID      string      `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	JSONRPC string      `json:"jsonrpc"`
}

// RPCError represents a JSON-RPC 2.0 error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return e.Message
}

// ErrorDetail carries the engine's stable error code and any field-level
// violations inside an RPC error's data field.
type ErrorDetail struct {
	Code       string                 `json:"code"`
	Violations []toolengine.Violation `json:"violations,omitempty"`
	Attempts   int                    `json:"attempts,omitempty"`
}

// RequestHandler is a function that handles RPC requests. The context is
// cancelled when the caller disconnects.
type RequestHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// RPC error codes
const (
	ParseError        = -32700
	InvalidRequest    = -32600
	MethodNotFound    = -32601
	InvalidParams     = -32602
	InternalError     = -32603
	RateLimitExceeded = -32005
	TooManyConcurrent = -32006
)

// Client represents a connected WebSocket client
type Client struct {
	ID           string
	Conn         *websocket.Conn
	ConnectedAt  time.Time
	LastActivity time.Time
	IPAddress    string
	RateLimiter  *ClientRateLimiter

	// Cancelled on disconnect so in-flight invocations stop retrying.
	Ctx    context.Context
	Cancel context.CancelFunc

	// Serializes writes; responses are produced concurrently.
	writeMu sync.Mutex
}

// WriteJSON writes a message to the client, safe for concurrent use.
func (c *Client) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}
