package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/auth"
)

type fakeRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[uuid.UUID]*entity.Account{}}
}

func (r *fakeRepo) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.accounts {
		if b.Email == a.Email || b.Nickname == a.Nickname {
			return errors.New("unique violation")
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) GetByNickname(_ context.Context, nickname string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Nickname == nickname {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

func (r *fakeRepo) List(_ context.Context, offset, limit int) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.Account
	for _, a := range r.accounts {
		cp := *a
		all = append(all, &cp)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeRepo) Update(_ context.Context, id uuid.UUID, patch *entity.AccountPatch) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Nickname != nil {
		a.Nickname = *patch.Nickname
	}
	if patch.FirstName != nil {
		a.FirstName = patch.FirstName
	}
	if patch.Bio != nil {
		a.Bio = patch.Bio
	}
	if patch.HashedPassword != nil {
		a.HashedPassword = *patch.HashedPassword
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return false, nil
	}
	delete(r.accounts, id)
	return true, nil
}

func (r *fakeRepo) MarkVerified(_ context.Context, id uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.VerificationToken == nil || *a.VerificationToken != token {
		return false, nil
	}
	a.EmailVerified = true
	a.VerificationToken = nil
	if a.Role == entity.RoleAnonymous {
		a.Role = entity.RoleAuthenticated
	}
	return true, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) SendVerification(_ context.Context, toEmail string, _ uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, toEmail+":"+token)
	return nil
}

func newTestService() (*Service, *fakeRepo, *recordingSender) {
	repo := newFakeRepo()
	sender := &recordingSender{}
	svc := NewService(repo, auth.BcryptHasher{Cost: 4}, sender, zap.NewNop().Sugar())
	return svc, repo, sender
}

func TestRegisterFirstAccountIsAdmin(t *testing.T) {
	svc, _, sender := newTestService()
	a, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.Role != entity.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", a.Role)
	}
	if !a.EmailVerified {
		t.Fatal("first account must be auto-verified")
	}
	if a.VerificationToken != nil {
		t.Fatal("first account must have no verification token")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no verification email expected, got %d", len(sender.sent))
	}
}

func TestRegisterSecondAccountIsAnonymous(t *testing.T) {
	svc, repo, sender := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"}); err != nil {
		t.Fatalf("register first: %v", err)
	}
	b, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if b.Role != entity.RoleAnonymous {
		t.Fatalf("role = %s, want ANONYMOUS", b.Role)
	}
	if b.EmailVerified {
		t.Fatal("second account must start unverified")
	}
	if b.VerificationToken == nil {
		t.Fatal("second account must carry a verification token")
	}
	if len(sender.sent) != 1 || !strings.HasPrefix(sender.sent[0], "b@x.com:") {
		t.Fatalf("verification email dispatch = %v", sender.sent)
	}

	// verifying with the token promotes and clears it
	if err := svc.VerifyEmail(ctx, b.ID, *b.VerificationToken); err != nil {
		t.Fatalf("verify email: %v", err)
	}
	stored, err := repo.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.EmailVerified || stored.VerificationToken != nil {
		t.Fatal("verification must set email_verified and clear the token")
	}
	if stored.Role != entity.RoleAuthenticated {
		t.Fatalf("role after verification = %s, want AUTHENTICATED", stored.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "A@X.COM", Password: "Other*5678"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "Secure*1234"}},
		{"short password", RegisterInput{Email: "a@x.com", Password: "short"}},
		{"bad url", RegisterInput{Email: "a@x.com", Password: "Secure*1234", GithubProfileURL: strptr("ftp://x")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestVerifyEmailBadToken(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	b, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.VerifyEmail(ctx, b.ID, "wrong-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
	if err := svc.VerifyEmail(ctx, uuid.New(), "any"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown account: got %v, want ErrInvalidToken", err)
	}
}

func TestUpdateRequiresAField(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.Update(ctx, a.ID, &entity.AccountPatch{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("empty patch: got %v, want ValidationError", err)
	}
}

func TestUpdateRehashesPassword(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pw := "NewSecure*99"
	if _, err := svc.Update(ctx, a.ID, &entity.AccountPatch{Password: &pw}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored, _ := repo.GetByID(ctx, a.ID)
	if stored.HashedPassword == a.HashedPassword {
		t.Fatal("password hash unchanged")
	}
	if stored.HashedPassword == pw {
		t.Fatal("plaintext stored")
	}
	if !(auth.BcryptHasher{}).Verify(stored.HashedPassword, pw) {
		t.Fatal("stored hash does not verify against the new password")
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	bio := "hello"
	if _, err := svc.Update(context.Background(), uuid.New(), &entity.AccountPatch{Bio: &bio}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestRequestedNicknameConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	nick := "taken_name"
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "Secure*1234", Nickname: &nick}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "Secure*1234", Nickname: &nick})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError for duplicate nickname", err)
	}
}

func strptr(s string) *string { return &s }
