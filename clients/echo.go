package clients

import (
	"context"
	"strings"
	"time"
)

// EchoResponder is a deterministic local responder for development runs
// without an API key. It echoes the prompt back word by word with a small
// delay between chunks so streaming behavior is observable.
type EchoResponder struct {
	ChunkDelay time.Duration
}

func NewEchoResponder() *EchoResponder {
	return &EchoResponder{ChunkDelay: 100 * time.Millisecond}
}

func (r *EchoResponder) StreamPrompt(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error) {
	words := strings.Fields(prompt)
	for i, word := range words {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.ChunkDelay):
		}

		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	return "", nil
}
