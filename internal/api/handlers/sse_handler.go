package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YingY4ang/Transcriber/internal/domain/entities"
	"github.com/YingY4ang/Transcriber/internal/domain/providers"
)

// SSEHandler handles Server-Sent Events for consultation completion
// notifications. Each connection gets its own event bus channel; the worker
// finds it through the subscription registry at completion time.
type SSEHandler struct {
	eventBus providers.EventBus
	registry providers.SubscriptionRegistry

	mu      sync.RWMutex
	clients map[string]struct{} // connection id -> present
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, registry providers.SubscriptionRegistry) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		registry: registry,
		clients:  make(map[string]struct{}),
	}
}

// StreamResult handles SSE connections waiting on one job's completion
// GET /stream/results/{key...}
func (h *SSEHandler) StreamResult(w http.ResponseWriter, r *http.Request) {
	jobKey := r.PathValue("key")
	if jobKey == "" {
		respondWithError(w, http.StatusBadRequest, "result key is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	connectionID := uuid.NewString()
	sub := &providers.Subscription{
		ConnectionID: connectionID,
		JobKey:       jobKey,
		CreatedAt:    time.Now(),
	}
	if err := h.registry.Register(r.Context(), sub); err != nil {
		log.Printf("Failed to register subscription for %s: %v", jobKey, err)
		respondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	// The request context is already cancelled during cleanup
	defer func() {
		if err := h.registry.Remove(context.Background(), connectionID); err != nil {
			log.Printf("Failed to remove subscription %s: %v", connectionID, err)
		}
	}()

	channel := providers.GetConnectionChannel(connectionID)
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Printf("Failed to subscribe to channel %s: %v", channel, err)
		return
	}
	defer func() {
		if err := h.eventBus.Unsubscribe(context.Background(), channel); err != nil {
			log.Printf("Failed to unsubscribe from channel %s: %v", channel, err)
		}
	}()

	h.registerClient(connectionID)
	defer h.unregisterClient(connectionID)

	// Send initial connection event
	h.sendEvent(w, "connected", map[string]interface{}{
		"connection_id": connectionID,
		"job_key":       jobKey,
		"timestamp":     time.Now(),
	})
	flusher.Flush()

	// Keep connection alive and send events
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from result stream: %s", jobKey)
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				// Bus closed the channel; nothing more can arrive
				log.Printf("Event channel closed, ending result stream: %s", jobKey)
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
			if event.Type == entities.ConsultationEventCompleted {
				// The job is done; nothing further will arrive on this stream
				log.Printf("Completion delivered, closing result stream: %s", jobKey)
				return
			}
		}
	}
}

// registerClient tracks a live connection
func (h *SSEHandler) registerClient(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connectionID] = struct{}{}
	log.Printf("Client registered: %s (total: %d)", connectionID, len(h.clients))
}

// unregisterClient drops a connection on disconnect
func (h *SSEHandler) unregisterClient(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connectionID)
	log.Printf("Client unregistered: %s (remaining: %d)", connectionID, len(h.clients))
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal event data: %v", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
