package realtime

import (
	"log/slog"
	"sync"
)

// Client represents a single subscriber connection.
// The actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub fans registry events out to the clients subscribed to a topic.
// Topics are network names.
type Hub struct {
	mu             sync.RWMutex
	topicToClients map[string]map[Client]struct{}
}

var hubInstance *Hub
var once sync.Once

// GetHub returns a singleton hub instance.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = NewHub()
	})
	return hubInstance
}

// NewHub returns an empty hub, mainly for tests.
func NewHub() *Hub {
	return &Hub{topicToClients: make(map[string]map[Client]struct{})}
}

// Register subscribes a client to a topic.
func (h *Hub) Register(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.topicToClients[topic]; !ok {
		h.topicToClients[topic] = make(map[Client]struct{})
	}
	h.topicToClients[topic][client] = struct{}{}
}

// Unregister removes a client; empty topics are dropped.
func (h *Hub) Unregister(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.topicToClients[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topicToClients, topic)
		}
	}
}

// Subscribers returns the number of clients on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topicToClients[topic])
}

// Broadcast sends a message to every client of a topic. Failed sends are left
// to the owning handler to clean up.
func (h *Hub) Broadcast(topic string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.topicToClients[topic] {
		if ok := c.Send(message); !ok {
			slog.Debug("realtime send failed", "topic", topic)
		}
	}
}
