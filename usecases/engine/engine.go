package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/samber/mo"

	"agentq/clients"
	"agentq/core"
	"agentq/models"
	"agentq/services"
	"agentq/services/dispatcher"
	"agentq/services/messages"
	"agentq/services/scheduler"
	"agentq/services/streams"
)

// Options configures one engine instance.
type Options struct {
	MaxQueueSize      int
	ProcessingTimeout time.Duration
	// DrainTimeout bounds how long Shutdown waits for the in-flight message
	// before force-cancelling the responder.
	DrainTimeout time.Duration
}

// Engine owns the queue core: the message store, the priority scheduler, the
// stream broadcaster and the single dispatch worker. Adapters talk to the
// core exclusively through it. One engine per process; tests construct as
// many independent engines as they need.
type Engine struct {
	store       *messages.Store
	scheduler   *scheduler.Scheduler
	broadcaster *streams.Broadcaster
	dispatcher  *dispatcher.Dispatcher

	// admitMu serializes the submit/cancel write paths so store and
	// scheduler updates land as one unit relative to each other.
	admitMu sync.Mutex

	drainTimeout time.Duration
	cancelRun    context.CancelFunc
}

func New(responder clients.Responder, opts Options) *Engine {
	store := messages.NewStore(opts.MaxQueueSize)
	sched := scheduler.NewScheduler()
	broadcaster := streams.NewBroadcaster()
	return &Engine{
		store:        store,
		scheduler:    sched,
		broadcaster:  broadcaster,
		dispatcher:   dispatcher.NewDispatcher(store, sched, broadcaster, responder, opts.ProcessingTimeout),
		drainTimeout: opts.DrainTimeout,
	}
}

// Start launches the dispatch worker.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelRun = cancel
	e.dispatcher.Start(runCtx)
	log.Printf("🚀 Engine started")
}

// Shutdown stops the dispatch worker, allowing the in-flight message up to
// the drain timeout to finish before force-cancelling it.
func (e *Engine) Shutdown() error {
	if e.cancelRun == nil {
		return nil
	}
	log.Printf("🛑 Engine shutting down, draining worker...")
	e.cancelRun()

	select {
	case <-e.dispatcher.Done():
	case <-time.After(e.drainTimeout):
		log.Printf("⚠️ Worker did not drain within %s, force-cancelling", e.drainTimeout)
		e.dispatcher.ForceStop()
		<-e.dispatcher.Done()
	}
	log.Printf("✅ Engine stopped gracefully")
	return nil
}

// Submit admits a new message: records it, opens its event stream and hands
// it to the scheduler. Returns the created message and its queue position.
func (e *Engine) Submit(
	ctx context.Context,
	userMessage string,
	priority models.Priority,
	threadID *string,
) (*models.Message, *int, error) {
	e.admitMu.Lock()
	defer e.admitMu.Unlock()

	message, err := e.store.Submit(userMessage, priority, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to submit message: %w", err)
	}

	e.broadcaster.Create(message.ID)

	// Capture the position before the scheduler sees the message; once
	// enqueued the worker may dequeue it at any moment.
	var position *int
	if maybePosition := e.store.QueuePosition(message.ID); maybePosition.IsPresent() {
		pos := maybePosition.MustGet()
		position = &pos
	}

	e.scheduler.Enqueue(message.ID, message.Priority.Rank(), message.Sequence)
	return message, position, nil
}

// Get returns a snapshot of a message by id.
func (e *Engine) Get(ctx context.Context, id string) mo.Option[*models.Message] {
	return e.store.Get(id)
}

// Cancel withdraws a QUEUED message: marks it CANCELLED, removes it from the
// scheduler (best-effort) and publishes the terminal cancelled event.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	e.admitMu.Lock()
	defer e.admitMu.Unlock()

	cancelled, err := e.store.Cancel(id)
	if err != nil {
		return fmt.Errorf("failed to cancel message: %w", err)
	}

	e.scheduler.Withdraw(id)
	if err := e.broadcaster.Publish(id, models.NewCancelledEvent(models.FormatEventTime(cancelled.CompletedAt))); err != nil {
		log.Printf("⚠️ Failed to publish cancelled event for message %s: %v", id, err)
	}
	return nil
}

// ListQueued returns snapshots of all queued messages in dispatch order.
func (e *Engine) ListQueued(ctx context.Context) []*models.Message {
	return e.store.ListQueued()
}

// QueuePosition returns the 0-indexed dispatch position of a queued message.
func (e *Engine) QueuePosition(ctx context.Context, id string) mo.Option[int] {
	return e.store.QueuePosition(id)
}

// Summary returns the aggregate queue view.
func (e *Engine) Summary(ctx context.Context) *models.QueueSummary {
	return e.store.Summary()
}

// Threads lists thread summaries by last activity, most recent first.
func (e *Engine) Threads(ctx context.Context) []*models.ThreadMetadata {
	return e.store.Threads()
}

// ThreadMetadata returns the metadata of one thread.
func (e *Engine) ThreadMetadata(ctx context.Context, threadID string) mo.Option[*models.ThreadMetadata] {
	return e.store.ThreadMetadata(threadID)
}

// ThreadMessages returns a thread's history in creation order.
func (e *Engine) ThreadMessages(ctx context.Context, threadID string) ([]*models.Message, error) {
	return e.store.ThreadMessages(threadID)
}

// Subscribe attaches to a message's event stream. The snapshot starts with a
// synthesized waiting event when the message is still queued; position is
// subscriber-specific so it never enters the shared replay.
func (e *Engine) Subscribe(ctx context.Context, id string) (*services.Subscription, error) {
	maybeMessage := e.store.Get(id)
	if !maybeMessage.IsPresent() {
		return nil, fmt.Errorf("message %w: %s", core.ErrNotFound, id)
	}
	message := maybeMessage.MustGet()

	snapshot, events, cancel, err := e.broadcaster.Subscribe(id)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to stream: %w", err)
	}

	if message.State == models.MessageStateQueued {
		position := 0
		if maybePosition := e.store.QueuePosition(id); maybePosition.IsPresent() {
			position = maybePosition.MustGet()
		}
		snapshot = append([]models.StreamEvent{models.NewWaitingEvent(position)}, snapshot...)
	}

	return &services.Subscription{
		Snapshot: snapshot,
		Events:   events,
		Cancel:   cancel,
	}, nil
}
