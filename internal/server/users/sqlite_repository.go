package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gymkeeper/internal/common"
	"github.com/dmitrijs2005/gymkeeper/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository stores accounts in the users table created by the
// devserver migrations.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = `id, firstname, lastname, email, role, avatar, enabled,
	password_hash, token_version, wallet_balance, created_at`

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (r *SQLiteRepository) Create(ctx context.Context, user *User) (*User, error) {
	u := user.Clone()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO users (firstname, lastname, email, email_key, role, avatar, enabled,
		                    password_hash, token_version, wallet_balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		u.Firstname, u.Lastname, u.Email, emailKey(u.Email), u.Role, u.Avatar, u.Enabled,
		u.PasswordHash, u.TokenVersion, u.WalletBalance, u.CreatedAt.UnixMilli()).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.CreatedAt = time.UnixMilli(u.CreatedAt.UnixMilli()).UTC()
	return u, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email_key = ?`, emailKey(email))
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u       User
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.Role, &u.Avatar, &u.Enabled,
		&u.PasswordHash, &u.TokenVersion, &u.WalletBalance, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return &u, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, user *User) error {
	query :=
		`UPDATE users
		 SET firstname = ?, lastname = ?, email = ?, email_key = ?, role = ?, avatar = ?,
		     enabled = ?, password_hash = ?, token_version = ?, wallet_balance = ?
		 WHERE id = ?
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.Firstname, user.Lastname, user.Email, emailKey(user.Email), user.Role, user.Avatar,
		user.Enabled, user.PasswordHash, user.TokenVersion, user.WalletBalance, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
