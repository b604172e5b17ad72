package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	t.Run("KnownValues", func(t *testing.T) {
		testCases := []struct {
			raw      string
			expected Priority
		}{
			{raw: "HIGH", expected: PriorityHigh},
			{raw: "NORMAL", expected: PriorityNormal},
			{raw: "LOW", expected: PriorityLow},
			{raw: "", expected: PriorityNormal},
		}
		for _, tc := range testCases {
			priority, err := ParsePriority(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, priority)
		}
	})

	t.Run("UnknownValue", func(t *testing.T) {
		_, err := ParsePriority("URGENT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown priority")
	})
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 1, PriorityHigh.Rank())
	assert.Equal(t, 2, PriorityNormal.Rank())
	assert.Equal(t, 3, PriorityLow.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	assert.Less(t, PriorityNormal.Rank(), PriorityLow.Rank())
}

func TestMessageStateIsTerminal(t *testing.T) {
	assert.False(t, MessageStateQueued.IsTerminal())
	assert.False(t, MessageStateProcessing.IsTerminal())
	assert.True(t, MessageStateCompleted.IsTerminal())
	assert.True(t, MessageStateFailed.IsTerminal())
	assert.True(t, MessageStateCancelled.IsTerminal())
}

func TestMessageClone(t *testing.T) {
	threadID := "thread-1"
	startedAt := time.Now().UTC()
	result := "answer"
	message := &Message{
		ID:          "msg_test",
		UserMessage: "question",
		Priority:    PriorityNormal,
		ThreadID:    &threadID,
		State:       MessageStateProcessing,
		CreatedAt:   time.Now().UTC(),
		StartedAt:   &startedAt,
		Chunks:      []string{"an", "swer"},
		Result:      &result,
	}

	clone := message.Clone()
	require.Equal(t, message, clone)

	// Mutating the clone must not touch the original.
	clone.Chunks[0] = "mutated"
	*clone.ThreadID = "other"
	*clone.Result = "changed"
	assert.Equal(t, "an", message.Chunks[0])
	assert.Equal(t, "thread-1", *message.ThreadID)
	assert.Equal(t, "answer", *message.Result)
}

func TestStreamEventIsTerminal(t *testing.T) {
	assert.False(t, NewWaitingEvent(0).IsTerminal())
	assert.False(t, NewStartedEvent().IsTerminal())
	assert.False(t, NewChunkEvent(0, "x").IsTerminal())
	assert.True(t, NewDoneEvent("x", nil).IsTerminal())
	assert.True(t, NewErrorEvent("boom", nil).IsTerminal())
	assert.True(t, NewCancelledEvent(nil).IsTerminal())
}
