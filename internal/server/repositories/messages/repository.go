package messages

import (
	"context"

	"github.com/okatenko/medqueue/internal/server/models"
)

type Repository interface {
	// Create persists the message and fills in the store-assigned ID and
	// SentAt.
	Create(ctx context.Context, message *models.Message) (*models.Message, error)
	// SetStatus updates a single message's status by identifier and
	// returns common.ErrorNotFound when no such message exists.
	SetStatus(ctx context.Context, id int64, status models.MessageStatus) error
	// MarkAllAnswered transitions every message of the author to Answered.
	// Already-Answered rows are idempotent no-ops.
	MarkAllAnswered(ctx context.Context, author string) error
	// QueueAfter returns all Queued messages with id > sinceID across all
	// authors, in insertion order.
	QueueAfter(ctx context.Context, sinceID int64) ([]models.Message, error)
	// InboxAfter returns all messages of the author, any status, with
	// id > sinceID, in insertion order.
	InboxAfter(ctx context.Context, author string, sinceID int64) ([]models.Message, error)
}
