package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	h := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(h.Close)

	url := "ws" + strings.TrimPrefix(h.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocket_RequestResponse(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTestServer(t, srv)

	require.NoError(t, conn.WriteJSON(RPCRequest{
		ID:     "ws-1",
		Method: "tools.call",
		Params: map[string]interface{}{
			"name":      "echo",
			"arguments": map[string]interface{}{"text": "over websocket"},
		},
	}))

	var resp RPCResponse
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&resp))

	assert.Equal(t, "ws-1", resp.ID)
	require.Nil(t, resp.Error)

	payload, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "over websocket", payload["result"])
}

func TestWebSocket_ResponsesCorrelatedByID(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTestServer(t, srv)

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		require.NoError(t, conn.WriteJSON(RPCRequest{
			ID:     id,
			Method: "tools.call",
			Params: map[string]interface{}{
				"name":      "echo",
				"arguments": map[string]interface{}{"text": id},
			},
		}))
	}

	// Responses may arrive in any order; each must echo its own id.
	seen := map[string]string{}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for range ids {
		var resp RPCResponse
		require.NoError(t, conn.ReadJSON(&resp))
		require.Nil(t, resp.Error)

		payload, ok := resp.Result.(map[string]interface{})
		require.True(t, ok)
		seen[resp.ID] = payload["result"].(string)
	}

	for _, id := range ids {
		assert.Equal(t, id, seen[id])
	}
}

func TestWebSocket_ParseErrorResponse(t *testing.T) {
	srv := newTestServer(t)
	conn := dialTestServer(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))

	var resp RPCResponse
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&resp))

	require.NotNil(t, resp.Error)
	assert.Equal(t, ParseError, resp.Error.Code)
}
