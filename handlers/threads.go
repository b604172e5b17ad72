package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"agentq/models"
	"agentq/models/api"
	"agentq/services"
)

// ThreadsHTTPHandler exposes the read-only thread views.
type ThreadsHTTPHandler struct {
	engine services.QueueEngine
}

func NewThreadsHTTPHandler(engine services.QueueEngine) *ThreadsHTTPHandler {
	return &ThreadsHTTPHandler{
		engine: engine,
	}
}

func (h *ThreadsHTTPHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering thread API endpoints")

	router.HandleFunc("/threads", h.HandleListThreads).Methods("GET")
	log.Printf("✅ GET /threads endpoint registered")

	router.HandleFunc("/threads/{thread_id}", h.HandleGetThreadMetadata).Methods("GET")
	log.Printf("✅ GET /threads/{thread_id} endpoint registered")

	router.HandleFunc("/threads/{thread_id}/messages", h.HandleGetThreadMessages).Methods("GET")
	log.Printf("✅ GET /threads/{thread_id}/messages endpoint registered")

	log.Printf("✅ All thread API endpoints registered successfully")
}

func (h *ThreadsHTTPHandler) HandleListThreads(w http.ResponseWriter, r *http.Request) {
	threads := h.engine.Threads(r.Context())
	log.Printf("📋 Retrieved %d threads", len(threads))
	writeJSON(w, http.StatusOK, threads)
}

func (h *ThreadsHTTPHandler) HandleGetThreadMetadata(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["thread_id"]

	maybeMetadata := h.engine.ThreadMetadata(r.Context(), threadID)
	if !maybeMetadata.IsPresent() {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "thread not found: " + threadID})
		return
	}
	writeJSON(w, http.StatusOK, maybeMetadata.MustGet())
}

func (h *ThreadsHTTPHandler) HandleGetThreadMessages(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["thread_id"]

	threadMessages, err := h.engine.ThreadMessages(r.Context(), threadID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "thread not found: " + threadID})
		return
	}

	response := api.ThreadMessagesResponse{
		ThreadID:      threadID,
		TotalMessages: len(threadMessages),
		Messages:      make([]api.MessageStatusResponse, 0, len(threadMessages)),
	}
	for _, message := range threadMessages {
		var position *int
		if message.State == models.MessageStateQueued {
			if maybePosition := h.engine.QueuePosition(r.Context(), message.ID); maybePosition.IsPresent() {
				pos := maybePosition.MustGet()
				position = &pos
			}
		}
		response.Messages = append(response.Messages, api.DomainMessageToStatusResponse(message, position))
	}

	writeJSON(w, http.StatusOK, response)
}
