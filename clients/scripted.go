package clients

import (
	"context"
	"sync"
	"time"
)

// ScriptedResponder replays a fixed chunk sequence. It records the prompts it
// was invoked with, in order, so tests can assert dispatch order.
type ScriptedResponder struct {
	// Chunks is the sequence yielded for every prompt.
	Chunks []string
	// Final is the canonical final text; "" means concat of chunks.
	Final string
	// Err, when set, is returned after all chunks are delivered.
	Err error
	// ChunkDelay is slept before each chunk, honoring ctx cancellation.
	ChunkDelay time.Duration

	mu      sync.Mutex
	prompts []string
}

func (r *ScriptedResponder) StreamPrompt(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()

	for _, chunk := range r.Chunks {
		if r.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.ChunkDelay):
			}
		} else if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}

	if r.Err != nil {
		return "", r.Err
	}
	return r.Final, nil
}

// Prompts returns the prompts processed so far, in invocation order.
func (r *ScriptedResponder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	prompts := make([]string, len(r.prompts))
	copy(prompts, r.prompts)
	return prompts
}
