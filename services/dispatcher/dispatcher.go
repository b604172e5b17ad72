package dispatcher

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gammazero/workerpool"

	"agentq/clients"
	"agentq/models"
	"agentq/services/messages"
	"agentq/services/scheduler"
	"agentq/services/streams"
)

// processingTimeoutError is the fixed error string recorded when a message
// exceeds its wall-clock processing budget.
const processingTimeoutError = "processing timeout"

// Dispatcher is the single consumer of the scheduler. It drives each message
// through its state machine via the responder and publishes stream events.
// Sequential processing is enforced with a size-1 worker pool: at most one
// message is in flight at any time.
type Dispatcher struct {
	store             *messages.Store
	scheduler         *scheduler.Scheduler
	broadcaster       *streams.Broadcaster
	responder         clients.Responder
	processingTimeout time.Duration
	workerPool        *workerpool.WorkerPool

	// drainCtx outlives the run-loop context so the in-flight message can
	// finish during shutdown; drainCancel is the hard stop.
	drainCtx    context.Context
	drainCancel context.CancelFunc
	done        chan struct{}
}

func NewDispatcher(
	store *messages.Store,
	sched *scheduler.Scheduler,
	broadcaster *streams.Broadcaster,
	responder clients.Responder,
	processingTimeout time.Duration,
) *Dispatcher {
	drainCtx, drainCancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:             store,
		scheduler:         sched,
		broadcaster:       broadcaster,
		responder:         responder,
		processingTimeout: processingTimeout,
		workerPool:        workerpool.New(1), // Sequential processing
		drainCtx:          drainCtx,
		drainCancel:       drainCancel,
		done:              make(chan struct{}),
	}
}

// Start launches the dispatch loop. The loop exits once ctx is cancelled and
// the in-flight message, if any, has reached a terminal state.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done is closed when the dispatch loop has fully drained and exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// ForceStop cancels the in-flight responder call. The interrupted message is
// recorded as FAILED. Used when a graceful drain exceeds its grace period.
func (d *Dispatcher) ForceStop() {
	d.drainCancel()
}

func (d *Dispatcher) run(ctx context.Context) {
	log.Printf("🚀 Dispatch worker started")

	for {
		id, err := d.scheduler.DequeueBlocking(ctx)
		if err != nil {
			log.Printf("🛑 Dispatch worker shutting down: %v", err)
			d.workerPool.StopWait()
			d.drainCancel()
			close(d.done)
			return
		}

		maybeMessage := d.store.Get(id)
		if !maybeMessage.IsPresent() {
			log.Printf("⚠️ Dequeued unknown message: id=%s", id)
			continue
		}
		message := maybeMessage.MustGet()

		// Authoritative withdrawal: anything no longer QUEUED (e.g. it was
		// cancelled after enqueue) is skipped with no published events.
		if message.State != models.MessageStateQueued {
			log.Printf("📋 Skipping message in state %s: id=%s", message.State, id)
			continue
		}

		d.workerPool.SubmitWait(func() {
			d.process(message)
		})
	}
}

func (d *Dispatcher) process(message *models.Message) {
	log.Printf("📋 Starting to process message: id=%s, priority=%s", message.ID, message.Priority)

	if _, err := d.store.Transition(message.ID, models.MessageStateProcessing, messages.TransitionOptions{}); err != nil {
		log.Printf("⚠️ Could not move message to PROCESSING: id=%s, err=%v", message.ID, err)
		return
	}
	d.publish(message.ID, models.NewStartedEvent())

	procCtx, cancel := context.WithTimeout(d.drainCtx, d.processingTimeout)
	defer cancel()

	var collected strings.Builder
	final, err := d.responder.StreamPrompt(procCtx, message.UserMessage, func(chunk string) error {
		if ctxErr := procCtx.Err(); ctxErr != nil {
			return ctxErr
		}
		index, appendErr := d.store.AppendChunk(message.ID, chunk)
		if appendErr != nil {
			return appendErr
		}
		collected.WriteString(chunk)
		d.publish(message.ID, models.NewChunkEvent(index, chunk))
		return nil
	})

	if err != nil {
		d.fail(message.ID, err, procCtx)
		return
	}

	// The responder's explicit final value wins; otherwise the result is the
	// concatenation of the streamed chunks.
	result := final
	if result == "" {
		result = collected.String()
	}

	updated, err := d.store.Transition(message.ID, models.MessageStateCompleted, messages.TransitionOptions{Result: &result})
	if err != nil {
		log.Printf("❌ Failed to complete message: id=%s, err=%v", message.ID, err)
		return
	}
	d.publish(message.ID, models.NewDoneEvent(result, models.FormatEventTime(updated.CompletedAt)))
	log.Printf("📋 Completed successfully - processed message: id=%s, result_length=%d", message.ID, len(result))
}

func (d *Dispatcher) fail(id string, cause error, procCtx context.Context) {
	errMsg := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(procCtx.Err(), context.DeadlineExceeded) {
		errMsg = processingTimeoutError
	}

	updated, err := d.store.Transition(id, models.MessageStateFailed, messages.TransitionOptions{Error: &errMsg})
	if err != nil {
		log.Printf("❌ Failed to record message failure: id=%s, err=%v", id, err)
		return
	}
	d.publish(id, models.NewErrorEvent(errMsg, models.FormatEventTime(updated.CompletedAt)))
	log.Printf("❌ Message processing failed: id=%s, error=%s", id, errMsg)
}

func (d *Dispatcher) publish(id string, event models.StreamEvent) {
	if err := d.broadcaster.Publish(id, event); err != nil {
		log.Printf("⚠️ Failed to publish %s event for message %s: %v", event.Type, id, err)
	}
}
