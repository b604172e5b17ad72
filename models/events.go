package models

import "time"

// FormatEventTime renders a terminal timestamp for event payloads.
// Nil in, nil out.
func FormatEventTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339Nano)
	return &formatted
}

// Stream event types. Each in-flight message has a stream of these; a stream
// carries zero or more chunk events and ends with exactly one terminal event.
const (
	StreamEventWaiting   = "waiting"
	StreamEventStarted   = "started"
	StreamEventChunk     = "chunk"
	StreamEventDone      = "done"
	StreamEventError     = "error"
	StreamEventCancelled = "cancelled"
)

// StreamEvent is one tagged record on a message's event stream.
type StreamEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// IsTerminal reports whether this event ends the stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == StreamEventDone || e.Type == StreamEventError || e.Type == StreamEventCancelled
}

// WaitingPayload is synthesized per-subscriber while the message is still
// queued; position differs between subscribers so it is never replayed.
type WaitingPayload struct {
	State    string `json:"state"`
	Position int    `json:"position"`
	Message  string `json:"message"`
}

type StartedPayload struct {
	State string `json:"state"`
}

type ChunkPayload struct {
	Type  string `json:"type"`
	Chunk string `json:"chunk"`
	Index int    `json:"index"`
}

type DonePayload struct {
	State       string  `json:"state"`
	Result      string  `json:"result"`
	CompletedAt *string `json:"completed_at"`
}

type ErrorPayload struct {
	State       string  `json:"state"`
	Error       string  `json:"error"`
	CompletedAt *string `json:"completed_at"`
}

type CancelledPayload struct {
	State       string  `json:"state"`
	Message     string  `json:"message"`
	CompletedAt *string `json:"completed_at"`
}

// NewWaitingEvent builds the at-most-once queue-position event for a subscriber.
func NewWaitingEvent(position int) StreamEvent {
	return StreamEvent{
		Type: StreamEventWaiting,
		Payload: WaitingPayload{
			State:    "queued",
			Position: position,
			Message:  "Waiting in queue",
		},
	}
}

func NewStartedEvent() StreamEvent {
	return StreamEvent{
		Type:    StreamEventStarted,
		Payload: StartedPayload{State: "processing"},
	}
}

func NewChunkEvent(index int, chunk string) StreamEvent {
	return StreamEvent{
		Type: StreamEventChunk,
		Payload: ChunkPayload{
			Type:  "content",
			Chunk: chunk,
			Index: index,
		},
	}
}

func NewDoneEvent(result string, completedAt *string) StreamEvent {
	return StreamEvent{
		Type: StreamEventDone,
		Payload: DonePayload{
			State:       "completed",
			Result:      result,
			CompletedAt: completedAt,
		},
	}
}

func NewErrorEvent(errMsg string, completedAt *string) StreamEvent {
	return StreamEvent{
		Type: StreamEventError,
		Payload: ErrorPayload{
			State:       "failed",
			Error:       errMsg,
			CompletedAt: completedAt,
		},
	}
}

func NewCancelledEvent(completedAt *string) StreamEvent {
	return StreamEvent{
		Type: StreamEventCancelled,
		Payload: CancelledPayload{
			State:       "cancelled",
			Message:     "Message was cancelled",
			CompletedAt: completedAt,
		},
	}
}
