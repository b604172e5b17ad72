package models

import "time"

// QueuedMessagePreview is a truncated view of a queued message, in scheduler order.
type QueuedMessagePreview struct {
	ID          string    `json:"id"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UserMessage string    `json:"user_message"`
}

// ProcessingMessagePreview is a truncated view of the in-flight message, if any.
type ProcessingMessagePreview struct {
	ID          string     `json:"id"`
	Priority    Priority   `json:"priority"`
	StartedAt   *time.Time `json:"started_at"`
	UserMessage string     `json:"user_message"`
}

// QueueSummary is the aggregate view over the whole message store.
type QueueSummary struct {
	TotalQueued       int                       `json:"total_queued"`
	TotalProcessing   int                       `json:"total_processing"`
	TotalCompleted    int                       `json:"total_completed"`
	TotalFailed       int                       `json:"total_failed"`
	TotalCancelled    int                       `json:"total_cancelled"`
	QueuedMessages    []QueuedMessagePreview    `json:"queued_messages"`
	CurrentProcessing *ProcessingMessagePreview `json:"current_processing"`
}
