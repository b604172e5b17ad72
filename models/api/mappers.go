package api

import (
	"agentq/models"
)

// DomainMessageToStatusResponse converts a domain Message to its API projection.
// queuePosition is nil unless the message is still queued.
func DomainMessageToStatusResponse(message *models.Message, queuePosition *int) MessageStatusResponse {
	return MessageStatusResponse{
		MessageID:     message.ID,
		State:         message.State,
		UserMessage:   message.UserMessage,
		Priority:      message.Priority,
		CreatedAt:     message.CreatedAt,
		StartedAt:     message.StartedAt,
		CompletedAt:   message.CompletedAt,
		Result:        message.Result,
		Error:         message.Error,
		QueuePosition: queuePosition,
		ThreadID:      message.ThreadID,
	}
}

// DomainMessageToSubmitResponse converts a freshly admitted message into the
// 202 Accepted body.
func DomainMessageToSubmitResponse(message *models.Message, queuePosition *int) SubmitMessageResponse {
	return SubmitMessageResponse{
		MessageID:     message.ID,
		State:         message.State,
		QueuePosition: queuePosition,
		CreatedAt:     message.CreatedAt,
		ThreadID:      message.ThreadID,
	}
}
