package router

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/auth"
	"github.com/vantrell/userhub/internal/rbac"
)

// guard enforces bearer-token authentication and role membership on routes.
type guard struct {
	tokens *auth.TokenService
	logger *zap.SugaredLogger
}

func newGuard(tokens *auth.TokenService, logger *zap.SugaredLogger) *guard {
	return &guard{tokens: tokens, logger: logger}
}

// requireRole decodes the Authorization header and rejects the request unless
// the token's role claim is a member of the required set. Valid claims are
// stored on the request context for the wrapped handler.
func (g *guard) requireRole(next http.HandlerFunc, required ...entity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := auth.BearerToken(r)
		if !ok {
			g.challenge(w)
			return
		}
		claims, err := g.tokens.Decode(raw)
		if err != nil {
			g.logger.Debugw("bearer token rejected", "path", r.URL.Path, "err", err)
			g.challenge(w)
			return
		}
		if !rbac.Authorize(claims.Role, required...) {
			g.logger.Debugw("authorization denied",
				"path", r.URL.Path,
				"account_id", claims.Subject,
			)
			g.writeError(w, http.StatusForbidden, "Operation not permitted")
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	}
}

func (g *guard) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	g.writeError(w, http.StatusUnauthorized, "Could not validate credentials")
}

func (g *guard) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
