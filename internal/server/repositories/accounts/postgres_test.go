package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+accounts\s*\(name,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s+\(name\)\s+DO\s+NOTHING\s*$`
const selectQ = `(?s)^SELECT\s+name,\s*password_hash,\s*role\s+FROM\s+accounts\s+WHERE\s+name\s*=\s*\$1\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("alice", "hash", "Client").
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Account{Name: "alice", PasswordHash: "hash", Role: models.RoleClient}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_ConflictIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// second registration under the same name affects zero rows and still succeeds
	mock.ExpectExec(insertQ).
		WithArgs("alice", "other-hash", "Staff").
		WillReturnResult(sqlmock.NewResult(0, 0))

	a := &models.Account{Name: "alice", PasswordHash: "other-hash", Role: models.RoleStaff}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("alice", "hash", "Client").
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Account{Name: "alice", PasswordHash: "hash", Role: models.RoleClient})
	if !errors.Is(err, common.ErrorStore) {
		t.Fatalf("want common.ErrorStore, got %v", err)
	}
}

func TestGetByName_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name", "password_hash", "role"}).
		AddRow("alice", "hash", "Client")
	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByName error: %v", err)
	}
	if got.Name != "alice" || got.Role != models.RoleClient {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByName_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByName(context.Background(), "alice")
	if !errors.Is(err, common.ErrorStore) {
		t.Fatalf("want common.ErrorStore, got %v", err)
	}
}

func TestGetByName_InvalidRoleRejected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name", "password_hash", "role"}).
		AddRow("alice", "hash", "Superuser")
	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnRows(rows)

	_, err := repo.GetByName(context.Background(), "alice")
	if err == nil {
		t.Fatalf("expected error for unknown role value")
	}
}
