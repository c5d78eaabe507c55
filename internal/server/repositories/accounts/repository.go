package accounts

import (
	"context"

	"github.com/okatenko/medqueue/internal/server/models"
)

type Repository interface {
	// Create inserts the account iff the name is absent. Repeated calls
	// for the same name are no-ops; the stored role and hash never change.
	Create(ctx context.Context, account *models.Account) error
	// GetByName returns the account or common.ErrorNotFound.
	GetByName(ctx context.Context, name string) (*models.Account, error)
}
