package streams

import (
	"fmt"
	"log"
	"sync"

	"agentq/core"
	"agentq/models"
	"agentq/utils"
)

// subscriberBufferSize bounds each subscriber's event channel. A subscriber
// that falls this far behind is disconnected; the publisher and the other
// subscribers are never stalled.
const subscriberBufferSize = 64

// stream is the per-message broadcast state: a replay buffer of every event
// published so far, the terminal latch, and the active subscriber channels.
type stream struct {
	mu          sync.Mutex
	replay      []models.StreamEvent
	terminal    bool
	subscribers map[int]chan models.StreamEvent
	nextSubID   int
}

// Broadcaster fans out per-message event streams to any number of concurrent
// subscribers, replaying history to late joiners. Streams stay queryable
// after their terminal event; they live as long as the message itself.
type Broadcaster struct {
	mu      sync.RWMutex
	streams map[string]*stream
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		streams: make(map[string]*stream),
	}
}

// Create registers a stream for a message id. Idempotent.
func (b *Broadcaster) Create(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.streams[id]; ok {
		return
	}
	b.streams[id] = &stream{
		subscribers: make(map[int]chan models.StreamEvent),
	}
}

// Publish appends an event to the stream's replay buffer and forwards it to
// every active subscriber. A terminal event latches the stream and closes
// all subscriber channels after delivery. Publishing to a latched stream is
// a bug in the single-writer discipline.
func (b *Broadcaster) Publish(id string, event models.StreamEvent) error {
	b.mu.RLock()
	st, ok := b.streams[id]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("stream %w: %s", core.ErrNotFound, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	utils.AssertInvariant(!st.terminal, "publish on terminated stream "+id)
	st.replay = append(st.replay, event)

	for subID, ch := range st.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber buffer overrun: disconnect only this subscriber.
			log.Printf("⚠️ Disconnecting slow subscriber %d on stream %s", subID, id)
			delete(st.subscribers, subID)
			close(ch)
		}
	}

	if event.IsTerminal() {
		st.terminal = true
		for subID, ch := range st.subscribers {
			delete(st.subscribers, subID)
			close(ch)
		}
	}
	return nil
}

// Subscribe atomically captures the replay history and registers a channel
// for future events. If the stream already terminated, the snapshot contains
// the full sequence including the terminal event and the returned channel is
// closed. The returned cancel func detaches the subscriber; it is safe to
// call after the stream has closed the channel.
func (b *Broadcaster) Subscribe(id string) ([]models.StreamEvent, <-chan models.StreamEvent, func(), error) {
	b.mu.RLock()
	st, ok := b.streams[id]
	b.mu.RUnlock()
	if !ok {
		return nil, nil, nil, fmt.Errorf("stream %w: %s", core.ErrNotFound, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	snapshot := make([]models.StreamEvent, len(st.replay))
	copy(snapshot, st.replay)

	ch := make(chan models.StreamEvent, subscriberBufferSize)
	if st.terminal {
		close(ch)
		return snapshot, ch, func() {}, nil
	}

	subID := st.nextSubID
	st.nextSubID++
	st.subscribers[subID] = ch

	cancel := func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if existing, stillActive := st.subscribers[subID]; stillActive {
			delete(st.subscribers, subID)
			close(existing)
		}
	}
	return snapshot, ch, cancel, nil
}

// Replay returns a copy of the events published so far plus the terminal flag.
func (b *Broadcaster) Replay(id string) ([]models.StreamEvent, bool, error) {
	b.mu.RLock()
	st, ok := b.streams[id]
	b.mu.RUnlock()
	if !ok {
		return nil, false, fmt.Errorf("stream %w: %s", core.ErrNotFound, id)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	snapshot := make([]models.StreamEvent, len(st.replay))
	copy(snapshot, st.replay)
	return snapshot, st.terminal, nil
}

// SubscriberCount reports the active subscribers on a stream. Zero for
// unknown or terminated streams.
func (b *Broadcaster) SubscriberCount(id string) int {
	b.mu.RLock()
	st, ok := b.streams[id]
	b.mu.RUnlock()
	if !ok {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.subscribers)
}
