// Package gateway exposes the execution engine over HTTP and WebSocket.
// Both transports are thin: they parse the envelope, hand the request to
// the engine, and render its result. All invocation semantics live in
// the engine.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/calder/toolsmith/internal/metrics"
	"github.com/calder/toolsmith/pkg/toolengine"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Server is the gateway server
type Server struct {
	host           string
	port           int
	engine         *toolengine.Engine
	metrics        *metrics.Metrics
	server         *http.Server
	upgrader       websocket.Upgrader
	clients        *ClientRegistry
	router         *RPCRouter
	rateLimit      RateLimit
	logger         zerolog.Logger
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// RateLimit holds per-client rate limiting settings
type RateLimit struct {
	Enabled           bool
	RequestsPerMinute int
	MaxConcurrent     int
}

// Config holds server configuration
type Config struct {
	Host      string
	Port      int
	Engine    *toolengine.Engine
	Metrics   *metrics.Metrics
	RateLimit RateLimit
	Logger    zerolog.Logger
}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		host:      cfg.Host,
		port:      cfg.Port,
		engine:    cfg.Engine,
		metrics:   cfg.Metrics,
		clients:   NewClientRegistry(),
		router:    NewRPCRouter(),
		rateLimit: cfg.RateLimit,
		logger:    cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	// Register built-in methods
	s.registerBuiltinMethods()

	return s, nil
}

// Start starts the gateway server
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: mux,
	}

	s.logger.Info().Str("host", s.host).Int("port", s.port).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Stop gracefully stops the gateway server, closing client connections
// and waiting for in-flight requests.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")

	// Cancel in-flight invocations held by WebSocket clients
	for _, client := range s.clients.GetAll() {
		client.Cancel()
	}

	// Wait for in-flight requests with timeout
	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(10 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	for _, client := range s.clients.GetAll() {
		client.Conn.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

// handleRPC handles single request/response invocations over HTTP
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var response *RPCResponse
	req, err := s.router.ParseRequest(body)
	if err != nil {
		response = &RPCResponse{
			JSONRPC: "2.0",
			Error:   toRPCError(err),
		}
	} else {
		s.inFlightReqs.Add(1)
		// The request context is cancelled if the HTTP caller goes away,
		// which stops retries inside the engine.
		response = s.router.RouteRequest(r.Context(), req)
		s.inFlightReqs.Done()
		s.recordRPC(req.Method, response)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write RPC response")
	}
}

// handleTools returns the current registry contents for discovery. The
// response is built from the registry at call time, never cached.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	payload := map[string]interface{}{
		"tools": descriptorsPayload(s.engine.Registry().List()),
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write tools response")
	}
}

// handleHealth is the liveness endpoint
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":             "healthy",
		"timestamp":          time.Now().Unix(),
		"active_connections": s.clients.Count(),
		"registered_tools":   s.engine.Registry().Count(),
	})
}

// handleWebSocket handles persistent streaming connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, _ := gonanoid.New()
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		ConnectedAt:  time.Now(),
		LastActivity: time.Now(),
		IPAddress:    r.RemoteAddr,
		RateLimiter:  s.newRateLimiter(),
		Ctx:          ctx,
		Cancel:       cancel,
	}

	s.clients.Add(client)
	if s.metrics != nil {
		s.metrics.WSConnectionsTotal.Inc()
		s.metrics.WSConnectionsActive.Set(float64(s.clients.Count()))
	}

	s.logger.Info().
		Str("clientId", clientID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	go s.handleClient(client)
}

func (s *Server) newRateLimiter() *ClientRateLimiter {
	if !s.rateLimit.Enabled {
		return nil
	}
	return NewClientRateLimiter(s.rateLimit.RequestsPerMinute, s.rateLimit.MaxConcurrent)
}

// handleClient reads messages from a client until it disconnects.
// Disconnecting cancels the client context, which aborts every
// invocation still in flight for that connection.
func (s *Server) handleClient(client *Client) {
	defer func() {
		client.Cancel()
		client.Conn.Close()
		s.clients.Remove(client.ID)
		if s.metrics != nil {
			s.metrics.WSConnectionsActive.Set(float64(s.clients.Count()))
		}
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			break
		}

		s.clients.UpdateActivity(client.ID)
		s.handleMessage(client, message)
	}
}

// handleMessage handles a single message from a client. Requests are
// dispatched concurrently; responses carry the caller's id and may
// arrive in any order.
func (s *Server) handleMessage(client *Client, message []byte) {
	req, err := s.router.ParseRequest(message)
	if err != nil {
		s.sendError(client, "", err)
		return
	}

	if client.RateLimiter != nil {
		allowed, reason := client.RateLimiter.CheckRequestAllowed()
		if !allowed {
			s.sendError(client, req.ID, &RPCError{Code: reason.RPCCode(), Message: reason.String()})
			return
		}
		client.RateLimiter.RecordRequestStart()
	}
	s.inFlightReqs.Add(1)

	go func() {
		defer s.inFlightReqs.Done()
		if client.RateLimiter != nil {
			defer client.RateLimiter.RecordRequestEnd()
		}

		response := s.router.RouteRequest(client.Ctx, req)
		s.recordRPC(req.Method, response)
		if err := client.WriteJSON(response); err != nil {
			s.logger.Error().
				Err(err).
				Str("clientId", client.ID).
				Str("requestId", req.ID).
				Msg("Failed to send response")
		}
	}()
}

func (s *Server) sendError(client *Client, requestID string, err error) {
	response := &RPCResponse{
		ID:      requestID,
		JSONRPC: "2.0",
		Error:   toRPCError(err),
	}
	if writeErr := client.WriteJSON(response); writeErr != nil {
		s.logger.Error().Err(writeErr).Str("clientId", client.ID).Msg("Failed to send error response")
	}
}

func (s *Server) recordRPC(method string, response *RPCResponse) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if response.Error != nil {
		status = "error"
	}
	s.metrics.RPCRequestsTotal.WithLabelValues(method, status).Inc()
}
