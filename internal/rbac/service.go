package rbac

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	account "github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/rbac/entity"
)

var (
	ErrSelfChange     = errors.New("admins cannot change their own role")
	ErrTargetNotFound = errors.New("target account not found")
)

// Authorize reports whether current is a member of the required role set.
// Every protected endpoint goes through this one check; there is no role
// ordering, only explicit membership.
func Authorize(current account.Role, required ...account.Role) bool {
	for _, r := range required {
		if current == r {
			return true
		}
	}
	return false
}

// Store is the transactional storage surface for role changes. The audit
// repository satisfies it with a row-locking transaction so the role update
// and the audit append commit or roll back together.
type Store interface {
	ChangeRole(ctx context.Context, targetID uuid.UUID, newRole account.Role, changedBy uuid.UUID) (*account.Account, bool, error)
	FindByTarget(ctx context.Context, targetID uuid.UUID) ([]entity.RoleChangeEntry, error)
}

// Service owns the privileged role-mutation workflow and the audit trail.
type Service struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// ChangeRole sets the target's role to newRole on behalf of actingID.
//
// Acting on one's own account is refused outright, whatever the acting
// account's role. Setting the role an account already holds is an idempotent
// success that writes no audit entry; every effective change appends exactly
// one entry within the same transaction as the update.
func (s *Service) ChangeRole(ctx context.Context, actingID, targetID uuid.UUID, newRole account.Role) (*account.Account, bool, error) {
	if actingID == targetID {
		return nil, false, ErrSelfChange
	}
	updated, changed, err := s.store.ChangeRole(ctx, targetID, newRole, actingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrTargetNotFound
		}
		return nil, false, err
	}
	if changed {
		s.logger.Infow("role updated",
			"target_user_id", targetID,
			"changed_by", actingID,
			"new_role", newRole,
		)
	} else {
		s.logger.Debugw("role unchanged", "target_user_id", targetID, "role", newRole)
	}
	return updated, changed, nil
}

// History returns the audit trail for one account, oldest entry first.
func (s *Service) History(ctx context.Context, targetID uuid.UUID) ([]entity.RoleChangeEntry, error) {
	return s.store.FindByTarget(ctx, targetID)
}
