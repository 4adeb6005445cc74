package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vantrell/userhub/internal/account/entity"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrAccountLocked    = errors.New("account locked")
	ErrBadCredentials   = errors.New("incorrect email or password")
)

// Store is the storage surface the authentication core needs. The sqlx
// account repository satisfies it; tests use an in-memory fake.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	RecordLoginSuccess(ctx context.Context, id uuid.UUID) error
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (locked bool, err error)
	Unlock(ctx context.Context, id uuid.UUID) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (bool, error)
}

// Service drives the per-account login state machine.
type Service struct {
	store  Store
	hasher PasswordHasher
	// MaxAttempts is the failure count at which an account locks.
	MaxAttempts int
}

func NewService(store Store, hasher PasswordHasher, maxAttempts int) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Service{store: store, hasher: hasher, MaxAttempts: maxAttempts}
}

// Authenticate checks credentials for the account registered under email.
//
// Locked and unverified accounts are refused before any password check and
// without touching the failure counter. A wrong password increments the
// counter atomically and may flip the account to locked; a correct one
// resets the counter and stamps last_login_at. Each call verifies the
// password at most once.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrBadCredentials
	}
	a, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if a.IsLocked {
		return nil, ErrAccountLocked
	}
	if !a.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if !s.hasher.Verify(a.HashedPassword, password) {
		locked, ferr := s.store.RecordLoginFailure(ctx, a.ID, s.MaxAttempts)
		if ferr != nil {
			return nil, ferr
		}
		if locked {
			return nil, ErrAccountLocked
		}
		return nil, ErrBadCredentials
	}

	if err := s.store.RecordLoginSuccess(ctx, a.ID); err != nil {
		return nil, err
	}
	a.FailedLoginAttempts = 0
	return a, nil
}

// IsLocked reports lock state for the account registered under email.
// Unknown accounts report false.
func (s *Service) IsLocked(ctx context.Context, email string) (bool, error) {
	a, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return a.IsLocked, nil
}

// Unlock is the explicit administrative action returning a locked account to
// normal operation, resetting its failure counter.
func (s *Service) Unlock(ctx context.Context, id uuid.UUID) error {
	ok, err := s.store.Unlock(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	return nil
}

// ResetPassword force-replaces the credential, clearing lockout state.
func (s *Service) ResetPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.store.UpdatePassword(ctx, id, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotFound
	}
	return nil
}
