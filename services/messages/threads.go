package messages

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/mo"

	"agentq/core"
	"agentq/models"
	"agentq/utils"
)

// addMessageToThread registers a newly submitted message in the thread index
// and updates the thread metadata. Caller must hold the write lock.
func (s *Store) addMessageToThread(threadID string, message *models.Message) {
	if _, ok := s.threadIndex[threadID]; !ok {
		s.threadIndex[threadID] = make(map[string]struct{})
		s.threadMeta[threadID] = models.NewThreadMetadata(threadID, message.CreatedAt)
	}

	s.threadIndex[threadID][message.ID] = struct{}{}

	metadata := s.threadMeta[threadID]
	metadata.MessageCount++
	metadata.LastActivity = message.CreatedAt
	metadata.States[message.State]++
	preview := utils.TruncateWithEllipsis(message.UserMessage, 100)
	metadata.LastMessagePreview = &preview
}

// updateThreadStateCounts moves one message between per-state counters when
// its state changes. Caller must hold the write lock.
func (s *Store) updateThreadStateCounts(threadID string, oldState, newState models.MessageState, now time.Time) {
	metadata, ok := s.threadMeta[threadID]
	if !ok {
		return
	}
	utils.AssertInvariant(metadata.States[oldState] > 0, "thread state count underflow for "+threadID)
	metadata.States[oldState]--
	metadata.States[newState]++
	metadata.LastActivity = now
}

// checkThreadInvariants verifies that the thread index, metadata counts and
// per-state counters agree. A mismatch is a bug, not a runtime failure.
// Caller must hold the write lock.
func (s *Store) checkThreadInvariants(threadID string) {
	metadata, hasMeta := s.threadMeta[threadID]
	index, hasIndex := s.threadIndex[threadID]
	utils.AssertInvariant(hasMeta == hasIndex, "thread index/metadata desync for "+threadID)
	if !hasMeta {
		return
	}

	stateSum := 0
	for _, count := range metadata.States {
		stateSum += count
	}
	utils.AssertInvariant(stateSum == metadata.MessageCount, "thread state counts do not sum to message count for "+threadID)
	utils.AssertInvariant(len(index) == metadata.MessageCount, "thread index size does not match message count for "+threadID)
	for id := range index {
		_, exists := s.messages[id]
		utils.AssertInvariant(exists, "thread index references unknown message "+id)
	}
}

// Threads returns all thread summaries sorted by last activity, most recent first.
func (s *Store) Threads() []*models.ThreadMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]*models.ThreadMetadata, 0, len(s.threadMeta))
	for _, metadata := range s.threadMeta {
		threads = append(threads, metadata.Clone())
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastActivity.After(threads[j].LastActivity)
	})
	return threads
}

// ThreadMetadata returns the metadata for one thread.
func (s *Store) ThreadMetadata(threadID string) mo.Option[*models.ThreadMetadata] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metadata, ok := s.threadMeta[threadID]
	if !ok {
		return mo.None[*models.ThreadMetadata]()
	}
	return mo.Some(metadata.Clone())
}

// ThreadMessages returns snapshots of a thread's messages in creation order.
func (s *Store) ThreadMessages(threadID string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, ok := s.threadIndex[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %w: %s", core.ErrNotFound, threadID)
	}

	threadMessages := make([]*models.Message, 0, len(index))
	for id := range index {
		message, exists := s.messages[id]
		utils.AssertInvariant(exists, "thread index references unknown message "+id)
		threadMessages = append(threadMessages, message.Clone())
	}
	sort.Slice(threadMessages, func(i, j int) bool {
		if threadMessages[i].CreatedAt.Equal(threadMessages[j].CreatedAt) {
			return threadMessages[i].Sequence < threadMessages[j].Sequence
		}
		return threadMessages[i].CreatedAt.Before(threadMessages[j].CreatedAt)
	})
	return threadMessages, nil
}
