package streams

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentq/core"
	"agentq/models"
)

func TestBroadcasterCreate(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")
		require.NoError(t, b.Publish("msg_1", models.NewStartedEvent()))

		// Re-creating must not wipe the replay buffer.
		b.Create("msg_1")
		replay, terminal, err := b.Replay("msg_1")
		require.NoError(t, err)
		assert.Len(t, replay, 1)
		assert.False(t, terminal)
	})

	t.Run("UnknownStreamErrors", func(t *testing.T) {
		b := NewBroadcaster()
		err := b.Publish("msg_missing", models.NewStartedEvent())
		require.ErrorIs(t, err, core.ErrNotFound)

		_, _, _, err = b.Subscribe("msg_missing")
		require.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestBroadcasterLiveDelivery(t *testing.T) {
	b := NewBroadcaster()
	b.Create("msg_1")

	snapshot, events, cancel, err := b.Subscribe("msg_1")
	require.NoError(t, err)
	defer cancel()
	assert.Empty(t, snapshot)

	require.NoError(t, b.Publish("msg_1", models.NewStartedEvent()))
	require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(0, "hello")))
	require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("hello", nil)))

	var received []models.StreamEvent
	for event := range events {
		received = append(received, event)
	}
	require.Len(t, received, 3)
	assert.Equal(t, models.StreamEventStarted, received[0].Type)
	assert.Equal(t, models.StreamEventChunk, received[1].Type)
	assert.Equal(t, models.StreamEventDone, received[2].Type)
}

func TestBroadcasterReplay(t *testing.T) {
	t.Run("MidStreamSubscriberSeesFullPrefix", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")

		require.NoError(t, b.Publish("msg_1", models.NewStartedEvent()))
		require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(0, "The ")))
		require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(1, "answer ")))

		snapshot, events, cancel, err := b.Subscribe("msg_1")
		require.NoError(t, err)
		defer cancel()

		require.Len(t, snapshot, 3)

		require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(2, "is 42.")))
		require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("The answer is 42.", nil)))

		var tail []models.StreamEvent
		for event := range events {
			tail = append(tail, event)
		}
		require.Len(t, tail, 2)

		// Snapshot + tail is the exact published sequence.
		full := append(snapshot, tail...)
		assert.Equal(t, models.StreamEventStarted, full[0].Type)
		for i, event := range full[1:4] {
			require.Equal(t, models.StreamEventChunk, event.Type)
			assert.Equal(t, i, event.Payload.(models.ChunkPayload).Index)
		}
		assert.Equal(t, models.StreamEventDone, full[4].Type)
	})

	t.Run("LateSubscriberGetsClosedChannel", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")
		require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(0, "x")))
		require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("x", nil)))

		snapshot, events, cancel, err := b.Subscribe("msg_1")
		require.NoError(t, err)
		defer cancel()

		require.Len(t, snapshot, 2)
		assert.True(t, snapshot[1].IsTerminal())

		_, open := <-events
		assert.False(t, open, "channel for a terminated stream must be closed")
	})
}

func TestBroadcasterTerminalLatch(t *testing.T) {
	t.Run("TerminalClosesAllSubscribers", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")

		_, first, cancelFirst, err := b.Subscribe("msg_1")
		require.NoError(t, err)
		defer cancelFirst()
		_, second, cancelSecond, err := b.Subscribe("msg_1")
		require.NoError(t, err)
		defer cancelSecond()

		require.NoError(t, b.Publish("msg_1", models.NewCancelledEvent(nil)))

		for _, events := range []<-chan models.StreamEvent{first, second} {
			event, open := <-events
			require.True(t, open)
			assert.True(t, event.IsTerminal())
			_, open = <-events
			assert.False(t, open)
		}
	})

	t.Run("PublishAfterTerminalPanics", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")
		require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("x", nil)))

		assert.Panics(t, func() {
			_ = b.Publish("msg_1", models.NewChunkEvent(0, "late"))
		})
	})

	t.Run("StreamRemainsQueryableAfterTerminal", func(t *testing.T) {
		b := NewBroadcaster()
		b.Create("msg_1")
		require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("x", nil)))

		replay, terminal, err := b.Replay("msg_1")
		require.NoError(t, err)
		assert.True(t, terminal)
		assert.Len(t, replay, 1)
	})
}

func TestBroadcasterSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	b.Create("msg_1")

	// Never drained: overruns its buffer.
	_, slow, cancelSlow, err := b.Subscribe("msg_1")
	require.NoError(t, err)
	defer cancelSlow()

	for i := 0; i < subscriberBufferSize+10; i++ {
		require.NoError(t, b.Publish("msg_1", models.NewChunkEvent(i, fmt.Sprintf("chunk %d", i))))
	}

	// The slow subscriber was disconnected...
	assert.Equal(t, 0, b.SubscriberCount("msg_1"))
	drained := 0
	for range slow {
		drained++
	}
	assert.Equal(t, subscriberBufferSize, drained)

	// ...but the stream itself is unharmed: a fresh subscriber replays everything.
	snapshot, _, cancelFresh, err := b.Subscribe("msg_1")
	require.NoError(t, err)
	defer cancelFresh()
	assert.Len(t, snapshot, subscriberBufferSize+10)
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	b.Create("msg_1")

	_, events, cancel, err := b.Subscribe("msg_1")
	require.NoError(t, err)
	require.Equal(t, 1, b.SubscriberCount("msg_1"))

	cancel()
	assert.Equal(t, 0, b.SubscriberCount("msg_1"))
	_, open := <-events
	assert.False(t, open)

	// Double cancel is harmless, as is cancel after terminal.
	cancel()
	require.NoError(t, b.Publish("msg_1", models.NewDoneEvent("x", nil)))
	cancel()
}
