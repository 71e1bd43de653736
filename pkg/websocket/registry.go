package websocket

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "websocket_active_connections",
	Help: "Number of currently connected WebSocket clients",
})

// Registry tracks active client connections by ID.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register adds a client. An existing client with the same ID is
// displaced, its send channel closed so its write pump terminates.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.clients[client.ID]; ok {
		close(existing.Send)
	}

	r.clients[client.ID] = client
	activeConnections.Set(float64(len(r.clients)))
}

// Unregister removes a client and closes its send channel. A client
// that was already displaced by a reconnect is left alone.
func (r *Registry) Unregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[client.ID]
	if !ok || current != client {
		return
	}

	delete(r.clients, client.ID)
	close(client.Send)
	activeConnections.Set(float64(len(r.clients)))
}

// Get returns a client by ID
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	return client, ok
}

// Count returns the number of connected clients
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
