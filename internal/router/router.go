package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vantrell/userhub/internal/account"
	"github.com/vantrell/userhub/internal/account/entity"
	"github.com/vantrell/userhub/internal/auth"
	"github.com/vantrell/userhub/internal/rbac"
	"github.com/vantrell/userhub/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level
// with a per-request id using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := utilities.NewRequestID()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			lrw.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Deps carries the handlers and services the routes are wired from.
type Deps struct {
	Accounts *account.Handler
	Auth     *auth.Handler
	Roles    *rbac.Handler
	Tokens   *auth.TokenService
	Logger   *zap.SugaredLogger
}

// RegisterRoutes mounts HTTP handlers using the standard library's
// http.ServeMux. Protected routes go through requireRole, which decodes the
// bearer token and checks the role claim against the route's required set.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	guard := newGuard(d.Tokens, d.Logger)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// registration and login are unauthenticated
	mux.HandleFunc("POST /register/", d.Accounts.Register)
	mux.HandleFunc("POST /login/", d.Auth.Login)
	mux.HandleFunc("GET /verify-email/{id}/{token}", d.Accounts.VerifyEmail)

	// account management requires ADMIN or MANAGER
	mux.HandleFunc("POST /users/", guard.requireRole(d.Accounts.Create, entity.RoleAdmin, entity.RoleManager))
	mux.HandleFunc("GET /users/", guard.requireRole(d.Accounts.List, entity.RoleAdmin, entity.RoleManager))
	mux.HandleFunc("GET /users/{id}", guard.requireRole(d.Accounts.Get, entity.RoleAdmin, entity.RoleManager))
	mux.HandleFunc("PUT /users/{id}", guard.requireRole(d.Accounts.Update, entity.RoleAdmin, entity.RoleManager))
	mux.HandleFunc("DELETE /users/{id}", guard.requireRole(d.Accounts.Delete, entity.RoleAdmin, entity.RoleManager))

	// role mutation, audit trail, and unlock are ADMIN-only
	mux.HandleFunc("PUT /users/{id}/role", guard.requireRole(d.Roles.UpdateRole, entity.RoleAdmin))
	mux.HandleFunc("GET /users/{id}/role-changes", guard.requireRole(d.Roles.History, entity.RoleAdmin))
	mux.HandleFunc("PUT /users/{id}/unlock", guard.requireRole(d.Auth.Unlock, entity.RoleAdmin))

	return LoggingMiddleware(d.Logger)(SecurityHeadersMiddleware()(mux))
}
