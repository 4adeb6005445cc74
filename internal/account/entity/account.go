package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles an account can hold. Access decisions are
// set-membership checks; there is no ordering between roles.
type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAnonymous:
		return RoleAnonymous, nil
	case RoleAuthenticated:
		return RoleAuthenticated, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("invalid role name: %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Account represents a row in the `users` table.
type Account struct {
	ID                          uuid.UUID  `db:"id" json:"id"`
	Nickname                    string     `db:"nickname" json:"nickname"`
	Email                       string     `db:"email" json:"email"`
	FirstName                   *string    `db:"first_name" json:"first_name,omitempty"`
	LastName                    *string    `db:"last_name" json:"last_name,omitempty"`
	Bio                         *string    `db:"bio" json:"bio,omitempty"`
	ProfilePictureURL           *string    `db:"profile_picture_url" json:"profile_picture_url,omitempty"`
	LinkedinProfileURL          *string    `db:"linkedin_profile_url" json:"linkedin_profile_url,omitempty"`
	GithubProfileURL            *string    `db:"github_profile_url" json:"github_profile_url,omitempty"`
	Role                        Role       `db:"role" json:"role"`
	IsProfessional              bool       `db:"is_professional" json:"is_professional"`
	ProfessionalStatusUpdatedAt *time.Time `db:"professional_status_updated_at" json:"professional_status_updated_at,omitempty"`
	LastLoginAt                 *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	FailedLoginAttempts         int        `db:"failed_login_attempts" json:"-"`
	IsLocked                    bool       `db:"is_locked" json:"is_locked"`
	VerificationToken           *string    `db:"verification_token" json:"-"`
	EmailVerified               bool       `db:"email_verified" json:"email_verified"`
	HashedPassword              string     `db:"hashed_password" json:"-"`
	CreatedAt                   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time  `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the account currently holds the given role.
func (a *Account) HasRole(r Role) bool { return a.Role == r }
