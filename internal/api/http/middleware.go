package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventstaff-backend/internal/config"
	"eventstaff-backend/internal/domain"
	"eventstaff-backend/internal/logger"
	"eventstaff-backend/internal/metrics"
	"eventstaff-backend/internal/security"
	"eventstaff-backend/internal/session"

	"github.com/gorilla/mux"
)

// SyncPendingHeader carries the number of writes waiting for the backend.
const SyncPendingHeader = "X-Sync-Pending"

// PendingCounter reports how many intents are queued locally.
type PendingCounter interface {
	PendingCount(ctx context.Context) int
}

// responseRecorder captures the status code and runs beforeWrite once, right
// before the headers go out.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wrote       bool
	beforeWrite func(h http.Header)
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.wrote {
		return
	}
	r.wrote = true
	r.status = status
	if r.beforeWrite != nil {
		r.beforeWrite(r.Header())
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// LoggingMiddleware logs each request and records it in the HTTP metrics.
func LoggingMiddleware(m *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			m.ObserveHTTP(routeTemplate(r), r.Method, rec.status, elapsed)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
				"remote", r.RemoteAddr,
			)
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", SyncPendingHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", "err", err, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// SyncPendingMiddleware adds X-Sync-Pending to responses while local writes
// wait for replay. The count is taken when the response is written so a write
// queued by the request itself is included.
func SyncPendingMiddleware(counter PendingCounter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counter == nil {
				next.ServeHTTP(w, r)
				return
			}
			rec := &responseRecorder{
				ResponseWriter: w,
				status:         http.StatusOK,
				beforeWrite: func(h http.Header) {
					if n := counter.PendingCount(r.Context()); n > 0 {
						h.Set(SyncPendingHeader, strconv.Itoa(n))
					}
				},
			}
			next.ServeHTTP(rec, r)
		})
	}
}

// AuthMiddleware validates the bearer token of protected routes and stores
// the session in the request context. The level comes from the route name.
func AuthMiddleware(tokens security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level := config.GetSecurityLevel(routeName(r))
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, domain.ErrUnauthenticated)
				return
			}
			claims, err := tokens.ValidateToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
				return
			}

			s := session.Session{UserID: claims.UserID, Email: claims.Email, Role: domain.UserRole(claims.Role)}
			if level == config.SecurityAdmin && !s.IsAdmin() {
				writeError(w, domain.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}
