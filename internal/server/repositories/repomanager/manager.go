package repomanager

import (
	"context"
	"database/sql"

	"github.com/okatenko/medqueue/internal/dbx"
	"github.com/okatenko/medqueue/internal/server/repositories/accounts"
	"github.com/okatenko/medqueue/internal/server/repositories/messages"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Messages(db dbx.DBTX) messages.Repository
}
