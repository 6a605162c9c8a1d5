package gateway

import (
	"sync"
	"time"
)

// ClientRegistry tracks connected WebSocket clients
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewClientRegistry creates a new client registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
	}
}

// Add adds a client to the registry
func (cr *ClientRegistry) Add(client *Client) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.clients[client.ID] = client
}

// Remove removes a client from the registry
func (cr *ClientRegistry) Remove(id string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	delete(cr.clients, id)
}

// Get returns a client by id
func (cr *ClientRegistry) Get(id string) (*Client, bool) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	client, ok := cr.clients[id]
	return client, ok
}

// GetAll returns all connected clients
func (cr *ClientRegistry) GetAll() []*Client {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	clients := make([]*Client, 0, len(cr.clients))
	for _, client := range cr.clients {
		clients = append(clients, client)
	}
	return clients
}

// Count returns the number of connected clients
func (cr *ClientRegistry) Count() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	return len(cr.clients)
}

// UpdateActivity records activity for a client
func (cr *ClientRegistry) UpdateActivity(id string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if client, ok := cr.clients[id]; ok {
		client.LastActivity = time.Now()
	}
}
