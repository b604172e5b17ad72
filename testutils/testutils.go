package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agentq/clients"
	"agentq/models"
	"agentq/services"
	"agentq/usecases/engine"
)

// DefaultEngineOptions are sane test defaults: small queue, short timeouts.
func DefaultEngineOptions() engine.Options {
	return engine.Options{
		MaxQueueSize:      100,
		ProcessingTimeout: 5 * time.Second,
		DrainTimeout:      2 * time.Second,
	}
}

// NewStartedEngine builds an engine around the given responder, starts its
// worker and registers cleanup.
func NewStartedEngine(t *testing.T, responder clients.Responder, opts engine.Options) *engine.Engine {
	t.Helper()

	queueEngine := engine.New(responder, opts)
	queueEngine.Start(context.Background())
	t.Cleanup(func() {
		_ = queueEngine.Shutdown()
	})
	return queueEngine
}

// NewPausedEngine builds an engine without starting the worker, so tests can
// stage the queue first. Call Start when ready.
func NewPausedEngine(t *testing.T, responder clients.Responder, opts engine.Options) *engine.Engine {
	t.Helper()
	return engine.New(responder, opts)
}

// WaitForState polls until the message reaches the wanted state.
func WaitForState(t *testing.T, queueEngine *engine.Engine, id string, want models.MessageState) *models.Message {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		maybeMessage := queueEngine.Get(context.Background(), id)
		require.True(t, maybeMessage.IsPresent(), "message %s not found while waiting for state %s", id, want)
		message := maybeMessage.MustGet()
		if message.State == want {
			return message
		}
		require.False(t, message.State.IsTerminal(),
			"message %s reached terminal state %s while waiting for %s", id, message.State, want)

		select {
		case <-deadline:
			t.Fatalf("timed out waiting for message %s to reach state %s (currently %s)", id, want, message.State)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// CollectEvents drains a subscription (snapshot plus live tail) until its
// terminal event and returns the full observed sequence.
func CollectEvents(t *testing.T, subscription *services.Subscription) []models.StreamEvent {
	t.Helper()

	events := make([]models.StreamEvent, 0, len(subscription.Snapshot))
	events = append(events, subscription.Snapshot...)
	for _, event := range events {
		if event.IsTerminal() {
			return events
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, open := <-subscription.Events:
			if !open {
				t.Fatalf("event channel closed before a terminal event (saw %d events)", len(events))
			}
			events = append(events, event)
			if event.IsTerminal() {
				return events
			}
		case <-deadline:
			t.Fatalf("timed out waiting for terminal event (saw %d events)", len(events))
		}
	}
}
