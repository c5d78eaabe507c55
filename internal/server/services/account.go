// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, the login-or-register
// credential check, and issuing/verifying session tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/server/auth"
	"github.com/okatenko/medqueue/internal/server/config"
	"github.com/okatenko/medqueue/internal/server/models"
	"github.com/okatenko/medqueue/internal/server/repositories/repomanager"
)

// AccountService provides authentication-related operations:
//   - RegisterOrGet: idempotent account creation
//   - LoginOrRegister: verify credentials, auto-provisioning unknown names
//   - IssueToken / VerifyToken: mint and validate session tokens
type AccountService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// RegisterOrGet creates an account iff the name is absent and returns the
// stored record. Repeated calls with the same name never change the stored
// role or password hash: the insert is a no-op and the original record is
// returned.
func (s *AccountService) RegisterOrGet(ctx context.Context, name, secret string, role models.Role) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty account name", common.ErrorValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", common.ErrorValidation)
	}

	hash, err := auth.HashPassword(secret)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Accounts(s.db)
	account := &models.Account{Name: name, PasswordHash: hash, Role: role}
	if err := repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return repo.GetByName(ctx, name)
}

// LoginOrRegister authenticates a name/secret pair. An unknown name
// auto-provisions a Client account with the secret's hash and succeeds;
// this deliberately lets any caller claim an unregistered username by
// logging in, which is why the behavior carries its own name instead of
// hiding inside Login. A known name is verified against the stored hash
// and fails with common.ErrorUnauthorized on mismatch.
func (s *AccountService) LoginOrRegister(ctx context.Context, name, secret string) (*models.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty account name", common.ErrorValidation)
	}

	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.RegisterOrGet(ctx, name, secret, models.RoleClient)
		}
		return nil, err
	}

	if err := auth.ComparePassword(account.PasswordHash, secret); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return account, nil
}

// IssueToken signs a session token for the account.
func (s *AccountService) IssueToken(account *models.Account) (string, error) {
	token, err := auth.GenerateToken(account, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// VerifyToken checks the token signature and expiry, then re-resolves the
// named account against the registry. A valid token for an account that no
// longer exists is rejected.
func (s *AccountService) VerifyToken(ctx context.Context, token string) (*models.Account, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	account, err := s.repomanager.Accounts(s.db).GetByName(ctx, claims.Name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	return account, nil
}
