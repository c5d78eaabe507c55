package accounts

import (
	"context"
	"database/sql"
	"errors"
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

// Create relies on the primary key for concurrent-registration safety:
// the losing insert is silently ignored.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) error {

	query :=
		`INSERT INTO accounts (name, password_hash, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query,
		account.Name, account.PasswordHash, account.Role)

	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	query :=
		`SELECT name, password_hash, role FROM accounts
		 WHERE name = $1
		 `

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&account.Name, &account.PasswordHash, &account.Role)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	return account, nil
}
