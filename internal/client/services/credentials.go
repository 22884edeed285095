// Package services contains application services of the gym client.
// This file defines the credential store: durable persistence of the bearer
// credential and the role hint in the local metadata table.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/dbx"
)

// StoredCredential is what survives a client restart. Role is a hint for
// optimistic rendering only and is never used for authorization.
type StoredCredential struct {
	Token string
	Role  models.Role
}

// CredentialStore persists the session credential.
//
// Contract:
//   - Load: return the stored credential; a zero value means none is stored.
//   - Save: replace token and role together, atomically.
//   - Clear: remove both entries. Clearing an empty store is not an error.
//
// All methods must honor context cancellation/timeouts.
type CredentialStore interface {
	Load(ctx context.Context) (StoredCredential, error)
	Save(ctx context.Context, token string, role models.Role) error
	Clear(ctx context.Context) error
}

// sqliteCredentialStore keeps the credential in the metadata table.
type sqliteCredentialStore struct {
	db *sql.DB
}

// NewCredentialStore constructs a CredentialStore bound to the local DB.
func NewCredentialStore(db *sql.DB) CredentialStore {
	return &sqliteCredentialStore{db: db}
}

func (s *sqliteCredentialStore) Load(ctx context.Context) (StoredCredential, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	token, ok, err := repo.Get(ctx, common.CredentialStorageKey)
	if err != nil {
		return StoredCredential{}, fmt.Errorf("load credential: %w", err)
	}
	if !ok || token == "" {
		return StoredCredential{}, nil
	}

	role, _, err := repo.Get(ctx, common.RoleStorageKey)
	if err != nil {
		return StoredCredential{}, fmt.Errorf("load role: %w", err)
	}
	return StoredCredential{Token: token, Role: models.Role(role)}, nil
}

// Save writes token and role in a single transaction so a crash never leaves
// a role without its credential.
func (s *sqliteCredentialStore) Save(ctx context.Context, token string, role models.Role) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.CredentialStorageKey, token); err != nil {
			return err
		}
		if role == "" {
			return repo.Delete(ctx, common.RoleStorageKey)
		}
		return repo.Set(ctx, common.RoleStorageKey, string(role))
	})
}

func (s *sqliteCredentialStore) Clear(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(s.db)
	if err := repo.Delete(ctx, common.CredentialStorageKey, common.RoleStorageKey); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
