package models

import "time"

// ThreadMetadata is derived bookkeeping for a client-chosen thread grouping.
// It is maintained in lockstep with message mutations: the per-state counts
// always sum to MessageCount.
type ThreadMetadata struct {
	ThreadID           string               `json:"thread_id"`
	MessageCount       int                  `json:"message_count"`
	CreatedAt          time.Time            `json:"created_at"`
	LastActivity       time.Time            `json:"last_activity"`
	States             map[MessageState]int `json:"states"`
	LastMessagePreview *string              `json:"last_message_preview"`
}

// Clone returns a deep copy safe to hand to readers outside the store lock.
func (t *ThreadMetadata) Clone() *ThreadMetadata {
	clone := *t
	clone.States = make(map[MessageState]int, len(t.States))
	for state, count := range t.States {
		clone.States[state] = count
	}
	if t.LastMessagePreview != nil {
		preview := *t.LastMessagePreview
		clone.LastMessagePreview = &preview
	}
	return &clone
}

// NewThreadMetadata initializes metadata for a thread's first message,
// with zero counts for every state.
func NewThreadMetadata(threadID string, createdAt time.Time) *ThreadMetadata {
	states := make(map[MessageState]int, len(AllMessageStates))
	for _, state := range AllMessageStates {
		states[state] = 0
	}
	return &ThreadMetadata{
		ThreadID:     threadID,
		MessageCount: 0,
		CreatedAt:    createdAt,
		LastActivity: createdAt,
		States:       states,
	}
}
