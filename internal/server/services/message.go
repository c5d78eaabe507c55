package services

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/dbx"
	"github.com/okatenko/medqueue/internal/server/models"
	"github.com/okatenko/medqueue/internal/server/repositories/repomanager"
)

// MessageService implements the message lifecycle and the cursor-based
// delivery paths. Cursors are the highest message id the caller has seen,
// not positional offsets, so a status change between two polls can neither
// skip nor duplicate entries.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Submit validates and persists a new Queued message. Text longer than
// models.MaxTextLen characters is rejected before anything is written.
func (s *MessageService) Submit(ctx context.Context, author, text string, fromStaff bool) (*models.Message, error) {
	if utf8.RuneCountInString(text) > models.MaxTextLen {
		return nil, fmt.Errorf("%w: message text exceeds %d characters", common.ErrorValidation, models.MaxTextLen)
	}

	repo := s.repomanager.Messages(s.db)
	message := &models.Message{
		Author:    author,
		Text:      text,
		Status:    models.StatusQueued,
		FromStaff: fromStaff,
	}
	return repo.Create(ctx, message)
}

// Reply persists a staff reply into the recipient's thread.
func (s *MessageService) Reply(ctx context.Context, recipient, text string) (*models.Message, error) {
	return s.Submit(ctx, recipient, text, true)
}

// Resolve posts a staff reply and marks every message of the recipient
// Answered in one transaction, so a poll never observes the reply without
// the status change.
func (s *MessageService) Resolve(ctx context.Context, recipient, text string) (*models.Message, error) {
	if utf8.RuneCountInString(text) > models.MaxTextLen {
		return nil, fmt.Errorf("%w: message text exceeds %d characters", common.ErrorValidation, models.MaxTextLen)
	}

	var message *models.Message
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messages(tx)
		if err := repo.MarkAllAnswered(ctx, recipient); err != nil {
			return err
		}
		var createErr error
		message, createErr = repo.Create(ctx, &models.Message{
			Author:    recipient,
			Text:      text,
			Status:    models.StatusAnswered,
			FromStaff: true,
		})
		return createErr
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// SetStatus updates a single message's status by identifier.
func (s *MessageService) SetStatus(ctx context.Context, id int64, status models.MessageStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid message status", common.ErrorValidation)
	}
	return s.repomanager.Messages(s.db).SetStatus(ctx, id, status)
}

// MarkAllAnswered bulk-transitions every message of the author to Answered.
// Already-Answered messages are unaffected, so the call is idempotent.
func (s *MessageService) MarkAllAnswered(ctx context.Context, author string) error {
	return s.repomanager.Messages(s.db).MarkAllAnswered(ctx, author)
}

// StaffQueue returns pending messages across all authors with id greater
// than sinceID, in insertion order.
func (s *MessageService) StaffQueue(ctx context.Context, sinceID int64) ([]models.Message, error) {
	return s.repomanager.Messages(s.db).QueueAfter(ctx, sinceID)
}

// ClientInbox returns the author's messages, any status, with id greater
// than sinceID, in insertion order.
func (s *MessageService) ClientInbox(ctx context.Context, author string, sinceID int64) ([]models.Message, error) {
	return s.repomanager.Messages(s.db).InboxAfter(ctx, author, sinceID)
}
