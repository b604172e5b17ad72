package scheduler

import (
	"container/heap"
	"context"
	"sync"
)

// Entry is one queued message reference, ordered by (rank, sequence).
// Rank comes from the message priority; sequence is the submit counter,
// guaranteeing FIFO within a priority.
type Entry struct {
	ID       string
	Rank     int
	Sequence uint64
}

type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].Rank != h[j].Rank {
		return h[i].Rank < h[j].Rank
	}
	return h[i].Sequence < h[j].Sequence
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// Scheduler is the priority-ordered admission structure over queued message
// ids. It is a passive data structure: it knows nothing about message state.
// Withdrawal is best-effort; the dispatcher re-checks the state of every
// dequeued id and skips ids that are no longer queued.
type Scheduler struct {
	mu     sync.Mutex
	heap   entryHeap
	notify chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		notify: make(chan struct{}, 1),
	}
}

// Enqueue adds a message reference. O(log n).
func (s *Scheduler) Enqueue(id string, rank int, sequence uint64) {
	s.mu.Lock()
	heap.Push(&s.heap, Entry{ID: id, Rank: rank, Sequence: sequence})
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// DequeueBlocking removes and returns the head entry's id. It blocks while
// the structure is empty and returns ctx.Err() once the context is cancelled.
func (s *Scheduler) DequeueBlocking(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		if s.heap.Len() > 0 {
			entry := heap.Pop(&s.heap).(Entry)
			s.mu.Unlock()
			return entry.ID, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.notify:
		}
	}
}

// Withdraw removes an entry in place. Returns false when the id is not
// present; callers must not rely on it for correctness.
func (s *Scheduler) Withdraw(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.heap {
		if entry.ID == id {
			heap.Remove(&s.heap, i)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of all entries in dispatch order.
func (s *Scheduler) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(entryHeap, len(s.heap))
	copy(snapshot, s.heap)
	ordered := make([]Entry, 0, len(snapshot))
	for snapshot.Len() > 0 {
		ordered = append(ordered, heap.Pop(&snapshot).(Entry))
	}
	return ordered
}

// Len returns the number of entries currently held.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}
