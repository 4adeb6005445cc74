package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account/entity"
)

// Handler exposes HTTP endpoints for registration, verification, and account
// management.
type Handler struct {
	svc     *Service
	baseURL string
	logger  *zap.SugaredLogger
}

func NewHandler(svc *Service, baseURL string, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, baseURL: baseURL, logger: logger}
}

type accountResponse struct {
	*entity.Account
	Links []Link `json:"links"`
}

// listResponse is the paginated listing body.
type listResponse struct {
	Items []accountResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Links []Link            `json:"links"`
}

func (h *Handler) respond(a *entity.Account) accountResponse {
	return accountResponse{Account: a, Links: accountLinks(h.baseURL, a.ID)}
}

// Register handles POST /register/.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	h.create(w, r, in)
}

// Create handles POST /users/ for privileged callers; same semantics as
// Register behind role enforcement.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	h.create(w, r, in)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, in RegisterInput) {
	a, err := h.svc.Register(r.Context(), in)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "Email already exists")
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Msg)
		default:
			h.logger.Errorw("registration failed", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}
	writeJSON(w, http.StatusCreated, h.respond(a))
}

// Get handles GET /users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(a))
}

// Update handles PUT /users/{id} with a tagged partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch entity.AccountPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.svc.Update(r.Context(), id, &patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.respond(a))
}

// Delete handles DELETE /users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /users/ with skip/limit pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 10)
	items, total, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		h.logger.Errorw("list users failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	out := listResponse{
		Items: make([]accountResponse, 0, len(items)),
		Total: total,
		Page:  skip/limit + 1,
		Size:  len(items),
		Links: paginationLinks(h.baseURL, skip, limit, total),
	}
	for _, a := range items {
		out.Items = append(out.Items, h.respond(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// VerifyEmail handles GET /verify-email/{id}/{token}.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), id, r.PathValue("token")); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		h.logger.Errorw("email verification failed", "account_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already exists")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
	default:
		h.logger.Errorw("account operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, d int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
