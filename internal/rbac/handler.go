package rbac

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	account "github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/auth"
)

// Handler exposes the role-mutation endpoint and the audit read path.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type updateRoleRequest struct {
	NewRole string `json:"new_role"`
}

// UpdateRole handles PUT /users/{id}/role. The acting account comes from the
// bearer claims installed by the middleware.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	newRole, err := account.ParseRole(req.NewRole)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid role name")
		return
	}

	_, _, err = h.svc.ChangeRole(r.Context(), claims.Subject, targetID, newRole)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfChange):
			writeError(w, http.StatusBadRequest, "Admins cannot change their own role")
		case errors.Is(err, ErrTargetNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Errorw("role change failed", "target_user_id", targetID, "err", err)
			writeError(w, http.StatusInternalServerError, "role change failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User role updated to %s", newRole),
	})
}

// History handles GET /users/{id}/role-changes, returning the audit trail in
// chronological order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	entries, err := h.svc.History(r.Context(), targetID)
	if err != nil {
		h.logger.Errorw("audit read failed", "target_user_id", targetID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read role changes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries, "total": len(entries)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
