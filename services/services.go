package services

import (
	"context"

	"github.com/samber/mo"

	"agentq/models"
)

// Subscription is one attached consumer of a message's event stream.
// Snapshot holds every event published before the subscription was taken;
// Events carries the live tail and is closed after the terminal event.
// Cancel detaches the subscriber; it is safe to call at any time.
type Subscription struct {
	Snapshot []models.StreamEvent
	Events   <-chan models.StreamEvent
	Cancel   func()
}

// QueueEngine defines the core operations the HTTP adapter drives.
type QueueEngine interface {
	Submit(
		ctx context.Context,
		userMessage string,
		priority models.Priority,
		threadID *string,
	) (*models.Message, *int, error)
	Get(ctx context.Context, id string) mo.Option[*models.Message]
	Cancel(ctx context.Context, id string) error
	ListQueued(ctx context.Context) []*models.Message
	QueuePosition(ctx context.Context, id string) mo.Option[int]
	Summary(ctx context.Context) *models.QueueSummary
	Threads(ctx context.Context) []*models.ThreadMetadata
	ThreadMetadata(ctx context.Context, threadID string) mo.Option[*models.ThreadMetadata]
	ThreadMessages(ctx context.Context, threadID string) ([]*models.Message, error)
	Subscribe(ctx context.Context, id string) (*Subscription, error)
}
