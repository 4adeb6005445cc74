package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	account "github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/rbac/entity"
)

// AuditRepo owns the role_change_logs table and the transactional role-change
// write against the users table.
type AuditRepo struct {
	db *sqlx.DB
}

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

// EnsureTable creates the role_change_logs table if not exists (idempotent).
func (r *AuditRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS role_change_logs (
  id UUID PRIMARY KEY,
  target_user_id UUID NOT NULL,
  changed_by UUID NOT NULL,
  old_role VARCHAR(50) NOT NULL,
  new_role VARCHAR(50) NOT NULL,
  timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_role_change_logs_target ON role_change_logs(target_user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// ChangeRole updates the target's role and appends exactly one audit entry in
// a single transaction. The SELECT ... FOR UPDATE serializes concurrent
// changes against the same target, so the recorded old_role is always the
// role the update actually replaced.
//
// Returns the account as of the transaction plus changed=false when the role
// already had the requested value (in which case no audit row is written).
// A missing target surfaces as sql.ErrNoRows.
func (r *AuditRepo) ChangeRole(ctx context.Context, targetID uuid.UUID, newRole account.Role, changedBy uuid.UUID) (*account.Account, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin role change: %w", err)
	}
	defer tx.Rollback()

	const sel = `SELECT id, nickname, email, first_name, last_name, bio,
		profile_picture_url, linkedin_profile_url, github_profile_url, role,
		is_professional, professional_status_updated_at, last_login_at,
		failed_login_attempts, is_locked, verification_token, email_verified,
		hashed_password, created_at, updated_at
		FROM users WHERE id=$1 FOR UPDATE`
	var target account.Account
	if err := tx.GetContext(ctx, &target, sel, targetID); err != nil {
		return nil, false, err
	}

	if target.Role == newRole {
		return &target, false, nil
	}

	oldRole := target.Role
	const upd = `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1 RETURNING updated_at`
	if err := tx.GetContext(ctx, &target.UpdatedAt, upd, targetID, newRole); err != nil {
		return nil, false, fmt.Errorf("update role: %w", err)
	}
	target.Role = newRole

	entry := entity.RoleChangeEntry{
		ID:           uuid.New(),
		TargetUserID: targetID,
		ChangedBy:    changedBy,
		OldRole:      oldRole,
		NewRole:      newRole,
	}
	const ins = `INSERT INTO role_change_logs (id, target_user_id, changed_by, old_role, new_role)
		VALUES ($1,$2,$3,$4,$5)`
	if _, err := tx.ExecContext(ctx, ins, entry.ID, entry.TargetUserID, entry.ChangedBy, entry.OldRole, entry.NewRole); err != nil {
		return nil, false, fmt.Errorf("append role change log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit role change: %w", err)
	}
	return &target, true, nil
}

// FindByTarget returns all audit entries for one account, oldest first.
func (r *AuditRepo) FindByTarget(ctx context.Context, targetID uuid.UUID) ([]entity.RoleChangeEntry, error) {
	const q = `SELECT id, target_user_id, changed_by, old_role, new_role, timestamp
		FROM role_change_logs WHERE target_user_id=$1 ORDER BY timestamp, id`
	var rows []entity.RoleChangeEntry
	if err := r.db.SelectContext(ctx, &rows, q, targetID); err != nil {
		return nil, err
	}
	return rows, nil
}
