package services

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"agentq/models"
)

// MockQueueEngine is a mock implementation of the QueueEngine interface
type MockQueueEngine struct {
	mock.Mock
}

func NewMockQueueEngine() *MockQueueEngine {
	return &MockQueueEngine{}
}

func (m *MockQueueEngine) Submit(
	ctx context.Context,
	userMessage string,
	priority models.Priority,
	threadID *string,
) (*models.Message, *int, error) {
	args := m.Called(ctx, userMessage, priority, threadID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Message), args.Get(1).(*int), args.Error(2)
}

func (m *MockQueueEngine) Get(ctx context.Context, id string) mo.Option[*models.Message] {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Message])
}

func (m *MockQueueEngine) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueueEngine) ListQueued(ctx context.Context) []*models.Message {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Message)
}

func (m *MockQueueEngine) QueuePosition(ctx context.Context, id string) mo.Option[int] {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[int])
}

func (m *MockQueueEngine) Summary(ctx context.Context) *models.QueueSummary {
	args := m.Called(ctx)
	return args.Get(0).(*models.QueueSummary)
}

func (m *MockQueueEngine) Threads(ctx context.Context) []*models.ThreadMetadata {
	args := m.Called(ctx)
	return args.Get(0).([]*models.ThreadMetadata)
}

func (m *MockQueueEngine) ThreadMetadata(ctx context.Context, threadID string) mo.Option[*models.ThreadMetadata] {
	args := m.Called(ctx, threadID)
	return args.Get(0).(mo.Option[*models.ThreadMetadata])
}

func (m *MockQueueEngine) ThreadMessages(ctx context.Context, threadID string) ([]*models.Message, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockQueueEngine) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Subscription), args.Error(1)
}
