package entity

import (
	"time"

	"github.com/google/uuid"

	account "github.com/vantrell/userhub/internal/account/entity"
)

// RoleChangeEntry is an immutable audit record of one effective role change.
type RoleChangeEntry struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	TargetUserID uuid.UUID    `db:"target_user_id" json:"target_user_id"`
	ChangedBy    uuid.UUID    `db:"changed_by" json:"changed_by"`
	OldRole      account.Role `db:"old_role" json:"old_role"`
	NewRole      account.Role `db:"new_role" json:"new_role"`
	Timestamp    time.Time    `db:"timestamp" json:"timestamp"`
}
