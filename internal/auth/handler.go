package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account/entity"
)

// AccountGetter is the slice of the account service the handler needs to
// tell a missing account apart from one that is simply not locked.
type AccountGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.Account, error)
}

// Handler exposes the login and unlock endpoints.
type Handler struct {
	svc      *Service
	tokens   *TokenService
	accounts AccountGetter
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, tokens *TokenService, accounts AccountGetter, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, tokens: tokens, accounts: accounts, logger: logger}
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /login/ with a form-encoded username (email) and
// password, answering with a bearer token on success.
//
// Every credential failure other than lockout collapses to the same 401 body
// so responses cannot be used to enumerate accounts; the precise reason is
// only logged.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	a, err := h.svc.Authenticate(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountLocked):
			h.logger.Infow("login refused: account locked", "email", email)
			writeError(w, http.StatusBadRequest, "Account locked due to too many failed login attempts.")
		case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrEmailNotVerified), errors.Is(err, ErrBadCredentials):
			h.logger.Debugw("login failed", "email", email, "reason", err)
			writeError(w, http.StatusUnauthorized, "Incorrect email or password.")
		default:
			h.logger.Errorw("login failed", "err", err)
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	token, err := h.tokens.Issue(a.ID, a.Role)
	if err != nil {
		h.logger.Errorw("token issue failed", "account_id", a.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Unlock handles PUT /users/{id}/unlock, the administrative action returning
// a locked account to service. Unlocks are not audited.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if !a.IsLocked {
		writeError(w, http.StatusBadRequest, "Account is not locked")
		return
	}
	if err := h.svc.Unlock(r.Context(), id); err != nil {
		h.logger.Errorw("unlock failed", "account_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "unlock failed")
		return
	}
	h.logger.Infow("account unlocked", "account_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account unlocked"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
