package clients

import (
	"context"
)

// Responder is the pluggable text-generating capability the dispatch worker
// drives. StreamPrompt yields chunks through onChunk in order and returns the
// canonical final text, or "" when the result is the concatenation of the
// chunks. Implementations must stop promptly when ctx is cancelled and must
// propagate a non-nil error from onChunk.
type Responder interface {
	StreamPrompt(ctx context.Context, prompt string, onChunk func(chunk string) error) (string, error)
}
