package api

import (
	"time"

	"agentq/models"
)

// SubmitMessageRequest is the POST /messages body.
type SubmitMessageRequest struct {
	Message  string  `json:"message"`
	Priority string  `json:"priority,omitempty"`
	ThreadID *string `json:"thread_id,omitempty"`
}

// SubmitMessageResponse is returned with 202 Accepted on successful admission.
type SubmitMessageResponse struct {
	MessageID     string              `json:"message_id"`
	State         models.MessageState `json:"state"`
	QueuePosition *int                `json:"queue_position"`
	CreatedAt     time.Time           `json:"created_at"`
	ThreadID      *string             `json:"thread_id,omitempty"`
}

// MessageStatusResponse is the full message projection for GET /messages/{id}/status.
type MessageStatusResponse struct {
	MessageID     string              `json:"message_id"`
	State         models.MessageState `json:"state"`
	UserMessage   string              `json:"user_message"`
	Priority      models.Priority     `json:"priority"`
	CreatedAt     time.Time           `json:"created_at"`
	StartedAt     *time.Time          `json:"started_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Result        *string             `json:"result"`
	Error         *string             `json:"error"`
	QueuePosition *int                `json:"queue_position"`
	ThreadID      *string             `json:"thread_id"`
}

// CancelMessageResponse confirms a successful DELETE /messages/{id}.
type CancelMessageResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

// ThreadMessagesResponse wraps a thread's ordered history.
type ThreadMessagesResponse struct {
	ThreadID      string                  `json:"thread_id"`
	TotalMessages int                     `json:"total_messages"`
	Messages      []MessageStatusResponse `json:"messages"`
}

// ErrorResponse is the JSON body for all non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
