package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"agentq/appctx"
	"agentq/core"
	"agentq/models"
	"agentq/models/api"
	"agentq/services"
)

// MessagesHTTPHandler is the HTTP adapter over the queue engine. It
// translates requests into core operations 1:1 and serializes responses.
type MessagesHTTPHandler struct {
	engine services.QueueEngine
}

func NewMessagesHTTPHandler(engine services.QueueEngine) *MessagesHTTPHandler {
	return &MessagesHTTPHandler{
		engine: engine,
	}
}

func (h *MessagesHTTPHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering message API endpoints")

	router.HandleFunc("/messages", h.HandleSubmitMessage).Methods("POST")
	log.Printf("✅ POST /messages endpoint registered")

	router.HandleFunc("/messages/{id}/status", h.HandleGetMessageStatus).Methods("GET")
	log.Printf("✅ GET /messages/{id}/status endpoint registered")

	router.HandleFunc("/messages/{id}", h.HandleCancelMessage).Methods("DELETE")
	log.Printf("✅ DELETE /messages/{id} endpoint registered")

	router.HandleFunc("/queue", h.HandleGetQueueSummary).Methods("GET")
	log.Printf("✅ GET /queue endpoint registered")

	log.Printf("✅ All message API endpoints registered successfully")
}

func (h *MessagesHTTPHandler) HandleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	requestID, _ := appctx.GetRequestID(r.Context())
	log.Printf("📬 Submit message request received: request_id=%s", requestID)

	var request api.SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		log.Printf("❌ Failed to decode submit request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	priority, err := models.ParsePriority(request.Priority)
	if err != nil {
		log.Printf("❌ Invalid priority in submit request: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	message, position, err := h.engine.Submit(r.Context(), request.Message, priority, request.ThreadID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	log.Printf("📬 Message submitted: id=%s, priority=%s", message.ID, message.Priority)
	response := api.DomainMessageToSubmitResponse(message, position)
	h.writeJSONResponse(w, http.StatusAccepted, response)
}

func (h *MessagesHTTPHandler) HandleGetMessageStatus(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]

	maybeMessage := h.engine.Get(r.Context(), messageID)
	if !maybeMessage.IsPresent() {
		h.writeErrorResponse(w, http.StatusNotFound, "message not found: "+messageID)
		return
	}
	message := maybeMessage.MustGet()

	var position *int
	if message.State == models.MessageStateQueued {
		if maybePosition := h.engine.QueuePosition(r.Context(), messageID); maybePosition.IsPresent() {
			pos := maybePosition.MustGet()
			position = &pos
		}
	}

	response := api.DomainMessageToStatusResponse(message, position)
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *MessagesHTTPHandler) HandleCancelMessage(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]
	log.Printf("🗑️ Cancel message request received: id=%s", messageID)

	if err := h.engine.Cancel(r.Context(), messageID); err != nil {
		h.writeEngineError(w, err)
		return
	}

	log.Printf("✅ Message cancelled via API: id=%s", messageID)
	h.writeJSONResponse(w, http.StatusOK, api.CancelMessageResponse{
		Message:   "Message cancelled successfully",
		MessageID: messageID,
	})
}

func (h *MessagesHTTPHandler) HandleGetQueueSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.engine.Summary(r.Context())
	h.writeJSONResponse(w, http.StatusOK, summary)
}

// writeEngineError maps core sentinel errors onto HTTP status codes.
func (h *MessagesHTTPHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrQueueFull):
		h.writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, core.ErrNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNotCancellable):
		h.writeErrorResponse(w, http.StatusConflict, err.Error())
	default:
		log.Printf("❌ Unexpected engine error: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *MessagesHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *MessagesHTTPHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, api.ErrorResponse{Error: message})
}
