package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"agentq/core"
	"agentq/models"
	"agentq/models/api"
	"agentq/services"
)

// StreamsHTTPHandler pumps a message's event stream to SSE subscribers.
type StreamsHTTPHandler struct {
	engine            services.QueueEngine
	keepaliveInterval time.Duration
}

func NewStreamsHTTPHandler(engine services.QueueEngine, keepaliveInterval time.Duration) *StreamsHTTPHandler {
	return &StreamsHTTPHandler{
		engine:            engine,
		keepaliveInterval: keepaliveInterval,
	}
}

func (h *StreamsHTTPHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/messages/{id}/stream", h.HandleStreamMessage).Methods("GET")
	log.Printf("✅ GET /messages/{id}/stream endpoint registered")
}

func (h *StreamsHTTPHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]

	subscription, err := h.engine.Subscribe(r.Context(), messageID)
	if err != nil {
		if core.IsNotFoundError(err) {
			writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "message not found: " + messageID})
			return
		}
		log.Printf("❌ Failed to subscribe to message %s: %v", messageID, err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	defer subscription.Cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable nginx buffering
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log.Printf("📡 SSE stream opened: id=%s, replayed=%d", messageID, len(subscription.Snapshot))

	for _, event := range subscription.Snapshot {
		if event.Type == models.StreamEventStarted {
			// Not part of the wire catalogue; chunk events carry the
			// processing signal themselves.
			continue
		}
		if err := writeSSEEvent(w, event); err != nil {
			return
		}
		if event.IsTerminal() {
			flusher.Flush()
			log.Printf("📡 SSE stream finished from replay: id=%s", messageID)
			return
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(h.keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("📡 SSE subscriber disconnected: id=%s", messageID)
			return

		case event, open := <-subscription.Events:
			if !open {
				return
			}
			if event.Type == models.StreamEventStarted {
				continue
			}
			if err := writeSSEEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
			if event.IsTerminal() {
				log.Printf("📡 SSE stream finished: id=%s, terminal=%s", messageID, event.Type)
				return
			}

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event models.StreamEvent) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
