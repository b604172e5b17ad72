package clients

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockResponder is a mock implementation of the Responder interface
type MockResponder struct {
	mock.Mock
}

func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

func (m *MockResponder) StreamPrompt(
	ctx context.Context,
	prompt string,
	onChunk func(chunk string) error,
) (string, error) {
	args := m.Called(ctx, prompt, onChunk)
	return args.String(0), args.Error(1)
}

// WithChunks configures the mock to deliver the given chunks for any prompt
// and then succeed with the given final text.
func (m *MockResponder) WithChunks(final string, chunks ...string) *MockResponder {
	m.On("StreamPrompt", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			onChunk := args.Get(2).(func(chunk string) error)
			for _, chunk := range chunks {
				if err := onChunk(chunk); err != nil {
					return
				}
			}
		}).
		Return(final, nil)
	return m
}

// WithError configures the mock to fail every invocation with err.
func (m *MockResponder) WithError(err error) *MockResponder {
	m.On("StreamPrompt", mock.Anything, mock.Anything, mock.Anything).Return("", err)
	return m
}
