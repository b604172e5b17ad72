package models

import (
	"fmt"
	"time"
)

type MessageState string

const (
	MessageStateQueued     MessageState = "QUEUED"
	MessageStateProcessing MessageState = "PROCESSING"
	MessageStateCompleted  MessageState = "COMPLETED"
	MessageStateFailed     MessageState = "FAILED"
	MessageStateCancelled  MessageState = "CANCELLED"
)

// AllMessageStates lists every state, in lifecycle order. Used to build
// zero-filled per-state counters.
var AllMessageStates = []MessageState{
	MessageStateQueued,
	MessageStateProcessing,
	MessageStateCompleted,
	MessageStateFailed,
	MessageStateCancelled,
}

// IsTerminal returns true for states that are sinks in the transition graph.
func (s MessageState) IsTerminal() bool {
	return s == MessageStateCompleted || s == MessageStateFailed || s == MessageStateCancelled
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

// Rank returns the scheduler ordering rank. Lower rank dispatches first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	}
	panic("unknown priority: " + string(p))
}

// ParsePriority validates a caller-supplied priority string.
// An empty value defaults to NORMAL.
func ParsePriority(raw string) (Priority, error) {
	switch Priority(raw) {
	case "":
		return PriorityNormal, nil
	case PriorityHigh, PriorityNormal, PriorityLow:
		return Priority(raw), nil
	}
	return "", fmt.Errorf("unknown priority: %q", raw)
}

// Message is the unit of work: one user prompt and its processing record.
type Message struct {
	ID          string       `json:"id"`
	UserMessage string       `json:"user_message"`
	Priority    Priority     `json:"priority"`
	ThreadID    *string      `json:"thread_id,omitempty"`
	State       MessageState `json:"state"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Chunks      []string     `json:"chunks,omitempty"`
	Result      *string      `json:"result,omitempty"`
	Error       *string      `json:"error,omitempty"`

	// Sequence is the submit counter, the FIFO tiebreaker within a priority.
	Sequence uint64 `json:"sequence"`
}

// Clone returns a deep copy safe to hand to readers outside the store lock.
func (m *Message) Clone() *Message {
	clone := *m
	if m.ThreadID != nil {
		threadID := *m.ThreadID
		clone.ThreadID = &threadID
	}
	if m.StartedAt != nil {
		startedAt := *m.StartedAt
		clone.StartedAt = &startedAt
	}
	if m.CompletedAt != nil {
		completedAt := *m.CompletedAt
		clone.CompletedAt = &completedAt
	}
	if m.Result != nil {
		result := *m.Result
		clone.Result = &result
	}
	if m.Error != nil {
		errMsg := *m.Error
		clone.Error = &errMsg
	}
	if m.Chunks != nil {
		clone.Chunks = make([]string, len(m.Chunks))
		copy(clone.Chunks, m.Chunks)
	}
	return &clone
}
