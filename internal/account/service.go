package account

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/auth"
	"github.com/vantrell/userhub/internal/notify"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrEmailTaken   = errors.New("email already exists")
	ErrEmptyUpdate  = errors.New("at least one field must be provided for update")
	ErrInvalidToken = errors.New("invalid or expired verification token")
)

// ValidationError marks client input rejected before any state mutation.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern      = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	nicknamePattern = regexp.MustCompile(`^[\w-]{3,50}$`)
)

// Repository is the storage surface for account lifecycle operations.
type Repository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByNickname(ctx context.Context, nickname string) (*entity.Account, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]*entity.Account, error)
	Update(ctx context.Context, id uuid.UUID, patch *entity.AccountPatch) (*entity.Account, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	MarkVerified(ctx context.Context, id uuid.UUID, token string) (bool, error)
}

// RegisterInput carries the fields accepted at registration time.
type RegisterInput struct {
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	Nickname           *string `json:"nickname"`
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Bio                *string `json:"bio"`
	ProfilePictureURL  *string `json:"profile_picture_url"`
	LinkedinProfileURL *string `json:"linkedin_profile_url"`
	GithubProfileURL   *string `json:"github_profile_url"`
}

// Service provides business logic for account creation, updates, deletion,
// listing, and email verification.
type Service struct {
	repo   Repository
	hasher auth.PasswordHasher
	sender notify.Sender
	logger *zap.SugaredLogger
}

func NewService(repo Repository, hasher auth.PasswordHasher, sender notify.Sender, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	return &Service{repo: repo, hasher: hasher, sender: sender, logger: logger}
}

// Register validates and creates a new account.
//
// The first account ever created becomes ADMIN and is auto-verified with no
// token issued. Every later account starts as ANONYMOUS, unverified, with a
// single-use verification token dispatched by email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Account, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	nickname, err := s.pickNickname(ctx, in.Nickname)
	if err != nil {
		return nil, err
	}

	a := &entity.Account{
		ID:                 uuid.New(),
		Nickname:           nickname,
		Email:              email,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Bio:                in.Bio,
		ProfilePictureURL:  in.ProfilePictureURL,
		LinkedinProfileURL: in.LinkedinProfileURL,
		GithubProfileURL:   in.GithubProfileURL,
		HashedPassword:     hash,
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		a.Role = entity.RoleAdmin
		a.EmailVerified = true
	} else {
		a.Role = entity.RoleAnonymous
		token := ksuid.New().String()
		a.VerificationToken = &token
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if a.VerificationToken != nil {
		// Delivery failures must not undo a committed registration.
		if err := s.sender.SendVerification(ctx, a.Email, a.ID, *a.VerificationToken); err != nil {
			s.logger.Warnw("verification email dispatch failed", "account_id", a.ID, "err", err)
		}
	}
	s.logger.Infow("account registered", "account_id", a.ID, "role", a.Role)
	return a, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns one page of accounts plus the total count.
func (s *Service) List(ctx context.Context, skip, limit int) ([]*entity.Account, int64, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update applies a partial update. At least one field must be present, and
// the whole patch is validated before any storage write.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *entity.AccountPatch) (*entity.Account, error) {
	if patch == nil || patch.Empty() {
		return nil, &ValidationError{Msg: ErrEmptyUpdate.Error()}
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.HashedPassword = &hash
	}
	a, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Infow("account updated", "account_id", id)
	return a, nil
}

// Delete removes an account permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.logger.Infow("account deleted", "account_id", id)
	return nil
}

// VerifyEmail consumes a verification token. On success the email is marked
// verified, the token cleared, and an ANONYMOUS account promoted to
// AUTHENTICATED. The promotion never runs in reverse.
func (s *Service) VerifyEmail(ctx context.Context, id uuid.UUID, token string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return err
	}
	if a.VerificationToken == nil || token == "" ||
		subtle.ConstantTimeCompare([]byte(*a.VerificationToken), []byte(token)) != 1 {
		return ErrInvalidToken
	}
	ok, err := s.repo.MarkVerified(ctx, id, token)
	if err != nil {
		return err
	}
	if !ok {
		// Token was consumed between the read and the update.
		return ErrInvalidToken
	}
	s.logger.Infow("email verified", "account_id", id)
	return nil
}

func (s *Service) pickNickname(ctx context.Context, requested *string) (string, error) {
	if requested != nil {
		n := strings.TrimSpace(*requested)
		if !nicknamePattern.MatchString(n) {
			return "", &ValidationError{Msg: "invalid nickname format"}
		}
		if _, err := s.repo.GetByNickname(ctx, n); err == nil {
			return "", &ValidationError{Msg: "nickname already exists"}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return n, nil
	}
	for {
		n := generateNickname()
		_, err := s.repo.GetByNickname(ctx, n)
		if errors.Is(err, sql.ErrNoRows) {
			return n, nil
		}
		if err != nil {
			return "", err
		}
	}
}

var (
	nicknameAdjectives = []string{"clever", "jolly", "brave", "sly", "gentle"}
	nicknameAnimals    = []string{"panda", "fox", "raccoon", "koala", "lion"}
)

// generateNickname produces a URL-safe adjective_animal_number nickname.
func generateNickname() string {
	return fmt.Sprintf("%s_%s_%d",
		nicknameAdjectives[rand.Intn(len(nicknameAdjectives))],
		nicknameAnimals[rand.Intn(len(nicknameAnimals))],
		rand.Intn(1000))
}

func validateRegister(in RegisterInput) error {
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		return &ValidationError{Msg: "invalid email format"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Msg: "password must be at least 8 characters"}
	}
	return validateURLs(in.ProfilePictureURL, in.LinkedinProfileURL, in.GithubProfileURL)
}

func validatePatch(p *entity.AccountPatch) error {
	if p.Email != nil && !emailPattern.MatchString(strings.TrimSpace(*p.Email)) {
		return &ValidationError{Msg: "invalid email format"}
	}
	if p.Nickname != nil && !nicknamePattern.MatchString(strings.TrimSpace(*p.Nickname)) {
		return &ValidationError{Msg: "invalid nickname format"}
	}
	if p.Password != nil && len(*p.Password) < 8 {
		return &ValidationError{Msg: "password must be at least 8 characters"}
	}
	return validateURLs(p.ProfilePictureURL, p.LinkedinProfileURL, p.GithubProfileURL)
}

func validateURLs(urls ...*string) error {
	for _, u := range urls {
		if u != nil && *u != "" && !urlPattern.MatchString(*u) {
			return &ValidationError{Msg: "invalid URL format"}
		}
	}
	return nil
}

// isUniqueViolation detects a racing duplicate insert at the storage layer so
// it maps onto the same failure as the pre-insert uniqueness check.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
