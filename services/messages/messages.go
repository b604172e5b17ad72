package messages

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"

	"agentq/core"
	"agentq/models"
	"agentq/utils"
)

const maxThreadIDLength = 255

// validTransitions is the allowed edge set of the message state machine.
// Terminal states are sinks.
var validTransitions = map[models.MessageState][]models.MessageState{
	models.MessageStateQueued:     {models.MessageStateProcessing, models.MessageStateCancelled},
	models.MessageStateProcessing: {models.MessageStateCompleted, models.MessageStateFailed},
	models.MessageStateCompleted:  {},
	models.MessageStateFailed:     {},
	models.MessageStateCancelled:  {},
}

// TransitionOptions carries the optional terminal attributes of a transition.
type TransitionOptions struct {
	Result *string
	Error  *string
}

// Store is the authoritative in-memory table of all messages plus the
// secondary per-thread indices. It is the only writer of message state:
// every mutation goes through Submit, Transition, AppendChunk or Cancel
// under the single write lock. All state is lost on restart.
type Store struct {
	mu sync.RWMutex

	messages     map[string]*models.Message
	threadIndex  map[string]map[string]struct{}
	threadMeta   map[string]*models.ThreadMetadata
	sequence     uint64
	queuedCount  int
	processingID string
	maxQueueSize int
}

func NewStore(maxQueueSize int) *Store {
	return &Store{
		messages:     make(map[string]*models.Message),
		threadIndex:  make(map[string]map[string]struct{}),
		threadMeta:   make(map[string]*models.ThreadMetadata),
		maxQueueSize: maxQueueSize,
	}
}

// Submit validates and records a new message in state QUEUED.
// Fails with core.ErrQueueFull when admission would exceed the queued cap,
// and with core.ErrInvalidInput on an empty prompt or oversize thread id.
func (s *Store) Submit(userMessage string, priority models.Priority, threadID *string) (*models.Message, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", core.ErrInvalidInput)
	}
	if threadID != nil && len(*threadID) > maxThreadIDLength {
		return nil, fmt.Errorf("%w: thread_id exceeds %d characters", core.ErrInvalidInput, maxThreadIDLength)
	}
	switch priority {
	case models.PriorityHigh, models.PriorityNormal, models.PriorityLow:
	default:
		return nil, fmt.Errorf("%w: unknown priority %q", core.ErrInvalidInput, priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queuedCount >= s.maxQueueSize {
		return nil, fmt.Errorf("%w: %d messages already queued", core.ErrQueueFull, s.queuedCount)
	}

	var ownThreadID *string
	if threadID != nil {
		value := *threadID
		ownThreadID = &value
	}

	message := &models.Message{
		ID:          core.NewID("msg"),
		UserMessage: userMessage,
		Priority:    priority,
		ThreadID:    ownThreadID,
		State:       models.MessageStateQueued,
		CreatedAt:   time.Now().UTC(),
		Sequence:    s.sequence,
	}
	s.sequence++

	s.messages[message.ID] = message
	s.queuedCount++

	if threadID != nil {
		s.addMessageToThread(*threadID, message)
		s.checkThreadInvariants(*threadID)
	}

	log.Printf("📋 Message enqueued: id=%s, priority=%s, queued=%d", message.ID, priority, s.queuedCount)
	return message.Clone(), nil
}

// Get returns a snapshot of a message by ID.
func (s *Store) Get(id string) mo.Option[*models.Message] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return mo.None[*models.Message]()
	}
	return mo.Some(message.Clone())
}

// Transition moves a message to a new state, enforcing the transition graph.
// It is the only state writer: timestamps, terminal attributes and thread
// state counts are all updated here, atomically under the write lock.
// Returns the updated snapshot.
func (s *Store) Transition(id string, newState models.MessageState, opts TransitionOptions) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %w: %s", core.ErrNotFound, id)
	}

	if !isValidTransition(message.State, newState) {
		return nil, fmt.Errorf("%w: %s -> %s for message %s", core.ErrInvalidTransition, message.State, newState, id)
	}

	oldState := message.State
	message.State = newState

	now := time.Now().UTC()
	switch {
	case newState == models.MessageStateProcessing:
		utils.AssertInvariant(s.processingID == "", "more than one message in state PROCESSING")
		s.processingID = id
		message.StartedAt = &now
	case newState.IsTerminal():
		message.CompletedAt = &now
	}
	if oldState == models.MessageStateQueued {
		s.queuedCount--
	}
	if oldState == models.MessageStateProcessing {
		s.processingID = ""
	}

	if newState == models.MessageStateCompleted {
		result := ""
		if opts.Result != nil {
			result = *opts.Result
		}
		message.Result = &result
	}
	if newState == models.MessageStateFailed && opts.Error != nil {
		message.Error = opts.Error
	}

	if message.ThreadID != nil {
		s.updateThreadStateCounts(*message.ThreadID, oldState, newState, now)
		s.checkThreadInvariants(*message.ThreadID)
	}

	log.Printf("📋 Message state updated: id=%s, from=%s, to=%s", id, oldState, newState)
	return message.Clone(), nil
}

// AppendChunk records one streamed text fragment on a PROCESSING message
// and returns its index.
func (s *Store) AppendChunk(id string, chunk string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return 0, fmt.Errorf("message %w: %s", core.ErrNotFound, id)
	}
	if message.State != models.MessageStateProcessing {
		return 0, fmt.Errorf("%w: cannot append chunk in state %s", core.ErrInvalidTransition, message.State)
	}

	message.Chunks = append(message.Chunks, chunk)
	return len(message.Chunks) - 1, nil
}

// Cancel moves a QUEUED message to CANCELLED. Messages in any other state
// are not cancellable: cancellation of an in-flight message is unsupported.
func (s *Store) Cancel(id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %w: %s", core.ErrNotFound, id)
	}
	if message.State != models.MessageStateQueued {
		return nil, fmt.Errorf("%w: message %s is in state %s", core.ErrNotCancellable, id, message.State)
	}

	message.State = models.MessageStateCancelled
	now := time.Now().UTC()
	message.CompletedAt = &now
	s.queuedCount--

	if message.ThreadID != nil {
		s.updateThreadStateCounts(*message.ThreadID, models.MessageStateQueued, models.MessageStateCancelled, now)
		s.checkThreadInvariants(*message.ThreadID)
	}

	log.Printf("📋 Message cancelled: id=%s", id)
	return message.Clone(), nil
}

// ListQueued returns snapshots of all QUEUED messages in scheduler order:
// priority rank first, submit sequence as the FIFO tiebreaker.
func (s *Store) ListQueued() []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queued := make([]*models.Message, 0, s.queuedCount)
	for _, message := range s.messages {
		if message.State == models.MessageStateQueued {
			queued = append(queued, message.Clone())
		}
	}
	sort.Slice(queued, func(i, j int) bool {
		if queued[i].Priority.Rank() != queued[j].Priority.Rank() {
			return queued[i].Priority.Rank() < queued[j].Priority.Rank()
		}
		return queued[i].Sequence < queued[j].Sequence
	})
	return queued
}

// QueuePosition returns the 0-indexed dispatch position of a queued message.
// None when the message does not exist or is no longer queued.
func (s *Store) QueuePosition(id string) mo.Option[int] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.messages[id]
	if !ok || target.State != models.MessageStateQueued {
		return mo.None[int]()
	}

	position := 0
	for _, message := range s.messages {
		if message.ID == id || message.State != models.MessageStateQueued {
			continue
		}
		if message.Priority.Rank() < target.Priority.Rank() ||
			(message.Priority.Rank() == target.Priority.Rank() && message.Sequence < target.Sequence) {
			position++
		}
	}
	return mo.Some(position)
}

// Summary returns the aggregate queue view: counts by state, queued previews
// in dispatch order and the currently processing message, if any.
func (s *Store) Summary() *models.QueueSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.MessageState]int, len(models.AllMessageStates))
	for _, state := range models.AllMessageStates {
		counts[state] = 0
	}

	queued := make([]*models.Message, 0, s.queuedCount)
	var processing *models.Message
	for _, message := range s.messages {
		counts[message.State]++
		switch message.State {
		case models.MessageStateQueued:
			queued = append(queued, message)
		case models.MessageStateProcessing:
			processing = message
		}
	}

	sort.Slice(queued, func(i, j int) bool {
		if queued[i].Priority.Rank() != queued[j].Priority.Rank() {
			return queued[i].Priority.Rank() < queued[j].Priority.Rank()
		}
		return queued[i].Sequence < queued[j].Sequence
	})

	summary := &models.QueueSummary{
		TotalQueued:     counts[models.MessageStateQueued],
		TotalProcessing: counts[models.MessageStateProcessing],
		TotalCompleted:  counts[models.MessageStateCompleted],
		TotalFailed:     counts[models.MessageStateFailed],
		TotalCancelled:  counts[models.MessageStateCancelled],
		QueuedMessages:  make([]models.QueuedMessagePreview, 0, len(queued)),
	}
	for _, message := range queued {
		summary.QueuedMessages = append(summary.QueuedMessages, models.QueuedMessagePreview{
			ID:          message.ID,
			Priority:    message.Priority,
			CreatedAt:   message.CreatedAt,
			UserMessage: previewText(message.UserMessage),
		})
	}
	if processing != nil {
		var startedAt *time.Time
		if processing.StartedAt != nil {
			value := *processing.StartedAt
			startedAt = &value
		}
		summary.CurrentProcessing = &models.ProcessingMessagePreview{
			ID:          processing.ID,
			Priority:    processing.Priority,
			StartedAt:   startedAt,
			UserMessage: previewText(processing.UserMessage),
		}
	}
	return summary
}

// QueuedCount returns the number of messages currently in state QUEUED.
func (s *Store) QueuedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queuedCount
}

func isValidTransition(current, next models.MessageState) bool {
	for _, allowed := range validTransitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// previewText truncates display text for summary views.
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100])
}
