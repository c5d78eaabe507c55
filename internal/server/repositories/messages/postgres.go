package messages

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/dbx"
	"github.com/okatenko/medqueue/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, message *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (author_name, message, status, from_staff)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, sent_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		message.Author, message.Text, message.Status, message.FromStaff).Scan(&message.ID, &message.SentAt)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return message, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id int64, status models.MessageStatus) error {
	query :=
		`UPDATE messages SET status = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) MarkAllAnswered(ctx context.Context, author string) error {
	query :=
		`UPDATE messages SET status = $1
		 WHERE author_name = $2
		 `

	_, err := r.db.ExecContext(ctx, query, models.StatusAnswered, author)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return nil
}

func (r *PostgresRepository) QueueAfter(ctx context.Context, sinceID int64) ([]models.Message, error) {
	query :=
		`SELECT id, author_name, message, status, sent_at, from_staff FROM messages
		 WHERE status = $1 AND id > $2
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, models.StatusQueued, sinceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return scanMessages(rows)
}

func (r *PostgresRepository) InboxAfter(ctx context.Context, author string, sinceID int64) ([]models.Message, error) {
	query :=
		`SELECT id, author_name, message, status, sent_at, from_staff FROM messages
		 WHERE author_name = $1 AND id > $2
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, author, sinceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	result := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Text, &m.Status, &m.SentAt, &m.FromStaff); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return result, nil
}
