package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// SSEClient is one connected event-stream listener.
type SSEClient struct {
	Messages chan string
}

// SSEManager fans dashboard updates out to connected clients.
type SSEManager struct {
	mu      sync.RWMutex
	clients map[*SSEClient]bool
}

// NewSSEManager creates an empty manager.
func NewSSEManager() *SSEManager {
	return &SSEManager{clients: make(map[*SSEClient]bool)}
}

// Register adds a listener.
func (m *SSEManager) Register(c *SSEClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c] = true
}

// Unregister removes a listener.
func (m *SSEManager) Unregister(c *SSEClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, c)
}

// SendToAll broadcasts one event to every connected client. Clients that
// stop reading are skipped; their connection handler cleans them up.
func (m *SSEManager) SendToAll(eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE message: %v", err)
		return
	}
	msg := fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload)

	m.mu.RLock()
	clients := make([]*SSEClient, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	// Never wait on a slow client; dropped updates are superseded by the
	// next broadcast anyway.
	for _, c := range clients {
		select {
		case c.Messages <- msg:
		default:
			log.Printf("SSE client is not receiving, dropping update")
		}
	}
}

// handleEvents serves the dashboard event stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &SSEClient{Messages: make(chan string, 8)}
	s.sse.Register(client)
	defer s.sse.Unregister(client)

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-client.Messages:
			fmt.Fprint(w, msg)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, "event: heartbeat\ndata: ping\n\n")
			flusher.Flush()
		}
	}
}
