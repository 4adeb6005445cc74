package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vantrell/userhub/internal/account/entity"
)

// AccountRepo provides data access for the users table using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY,
  nickname VARCHAR(50) UNIQUE NOT NULL,
  email VARCHAR(255) UNIQUE NOT NULL,
  first_name VARCHAR(100),
  last_name VARCHAR(100),
  bio VARCHAR(500),
  profile_picture_url VARCHAR(255),
  linkedin_profile_url VARCHAR(255),
  github_profile_url VARCHAR(255),
  role VARCHAR(20) NOT NULL,
  is_professional BOOLEAN NOT NULL DEFAULT false,
  professional_status_updated_at TIMESTAMPTZ,
  last_login_at TIMESTAMPTZ,
  failed_login_attempts INT NOT NULL DEFAULT 0,
  is_locked BOOLEAN NOT NULL DEFAULT false,
  verification_token TEXT,
  email_verified BOOLEAN NOT NULL DEFAULT false,
  hashed_password VARCHAR(255) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_nickname ON users(nickname);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const accountColumns = `id, nickname, email, first_name, last_name, bio,
	profile_picture_url, linkedin_profile_url, github_profile_url, role,
	is_professional, professional_status_updated_at, last_login_at,
	failed_login_attempts, is_locked, verification_token, email_verified,
	hashed_password, created_at, updated_at`

// Create inserts a new account row. Timestamps are read back from the insert.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO users (id, nickname, email, first_name, last_name, bio,
		profile_picture_url, linkedin_profile_url, github_profile_url, role,
		is_professional, verification_token, email_verified, hashed_password)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, q,
		a.ID, a.Nickname, a.Email, a.FirstName, a.LastName, a.Bio,
		a.ProfilePictureURL, a.LinkedinProfileURL, a.GithubProfileURL, a.Role,
		a.IsProfessional, a.VerificationToken, a.EmailVerified, a.HashedPassword)
	return row.Scan(&a.CreatedAt, &a.UpdatedAt)
}

// GetByID fetches a full account row or sql.ErrNoRows.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM users WHERE id=$1`
	var row entity.Account
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByEmail fetches by email or sql.ErrNoRows.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM users WHERE lower(email)=lower($1)`
	var row entity.Account
	if err := r.db.GetContext(ctx, &row, q, email); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByNickname fetches by nickname or sql.ErrNoRows.
func (r *AccountRepo) GetByNickname(ctx context.Context, nickname string) (*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM users WHERE nickname=$1`
	var row entity.Account
	if err := r.db.GetContext(ctx, &row, q, nickname); err != nil {
		return nil, err
	}
	return &row, nil
}

// Count returns the total number of accounts.
func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns accounts ordered by creation time, offset/limit paginated.
func (r *AccountRepo) List(ctx context.Context, offset, limit int) ([]*entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`
	var rows []*entity.Account
	if err := r.db.SelectContext(ctx, &rows, q, offset, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies the non-nil fields of the patch and returns the updated row,
// or sql.ErrNoRows when the account does not exist.
func (r *AccountRepo) Update(ctx context.Context, id uuid.UUID, patch *entity.AccountPatch) (*entity.Account, error) {
	set := []string{"updated_at=NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Nickname != nil {
		add("nickname", *patch.Nickname)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.ProfilePictureURL != nil {
		add("profile_picture_url", *patch.ProfilePictureURL)
	}
	if patch.LinkedinProfileURL != nil {
		add("linkedin_profile_url", *patch.LinkedinProfileURL)
	}
	if patch.GithubProfileURL != nil {
		add("github_profile_url", *patch.GithubProfileURL)
	}
	if patch.IsProfessional != nil {
		add("is_professional", *patch.IsProfessional)
		set = append(set, "professional_status_updated_at=NOW()")
	}
	if patch.HashedPassword != nil {
		add("hashed_password", *patch.HashedPassword)
	}
	q := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id=$1 RETURNING ` + accountColumns
	var row entity.Account
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes an account. Returns false when no row matched.
func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkVerified flips email_verified and clears the verification token in one
// statement; the token match in the WHERE clause makes the token single-use.
// An ANONYMOUS account is promoted to AUTHENTICATED in the same update.
func (r *AccountRepo) MarkVerified(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	const q = `UPDATE users SET email_verified=true, verification_token=NULL,
		role = CASE WHEN role=$3 THEN $4 ELSE role END, updated_at=NOW()
		WHERE id=$1 AND verification_token=$2 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, token, entity.RoleAnonymous, entity.RoleAuthenticated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RecordLoginSuccess resets the failure counter and stamps last_login_at.
func (r *AccountRepo) RecordLoginSuccess(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET failed_login_attempts=0, last_login_at=NOW(), updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// RecordLoginFailure increments the failure counter and locks the account in
// the same statement once maxAttempts is reached. Returns the resulting lock
// state. Already-locked accounts are left untouched.
func (r *AccountRepo) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (bool, error) {
	const q = `UPDATE users SET failed_login_attempts = failed_login_attempts + 1,
		is_locked = (failed_login_attempts + 1 >= $2), updated_at=NOW()
		WHERE id=$1 AND is_locked=false RETURNING is_locked`
	var locked bool
	err := r.db.GetContext(ctx, &locked, q, id, maxAttempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return locked, nil
}

// Unlock clears the lock and failure counter. Returns false when the account
// is missing or not locked.
func (r *AccountRepo) Unlock(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE users SET is_locked=false, failed_login_attempts=0, updated_at=NOW()
		WHERE id=$1 AND is_locked=true RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the credential hash and clears lockout state.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (bool, error) {
	const q = `UPDATE users SET hashed_password=$2, failed_login_attempts=0, is_locked=false, updated_at=NOW()
		WHERE id=$1 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
