package router

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	authrepo "github.com/ovaphlow/pitchfork/service-task-go/internal/auth/repo"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task"
	taskrepo "github.com/ovaphlow/pitchfork/service-task-go/internal/task/repo"
)

const requestIDHeader = "X-Request-ID"

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

// RequestIDMiddleware propagates an incoming X-Request-ID or assigns a new one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", r.Header.Get(requestIDHeader),
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
			w.Header().Set("Referrer-Policy", "no-referrer")
			// JSON API only; nothing here should ever be rendered or framed
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes wires repos, services and handlers onto a stdlib http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, tokens *auth.JWTIssuer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	users := authrepo.NewUserRepo(db)
	authSvc := auth.NewService(users, nil, tokens, logger)
	authHandler := auth.NewHandler(authSvc, logger)
	mux.HandleFunc("POST /auth/signup", authHandler.SignUp)
	mux.HandleFunc("POST /auth/signin", authHandler.SignIn)

	taskSvc := task.NewService(taskrepo.NewTaskRepo(db), logger)
	taskHandler := task.NewHandler(taskSvc, logger)
	requireUser := auth.RequireUser(tokens, users, logger)
	mux.Handle("GET /tasks", requireUser(http.HandlerFunc(taskHandler.List)))
	mux.Handle("POST /tasks", requireUser(http.HandlerFunc(taskHandler.Create)))
	mux.Handle("GET /tasks/{id}", requireUser(http.HandlerFunc(taskHandler.Get)))
	mux.Handle("PATCH /tasks/{id}/status", requireUser(http.HandlerFunc(taskHandler.UpdateStatus)))
	mux.Handle("DELETE /tasks/{id}", requireUser(http.HandlerFunc(taskHandler.Delete)))

	// request id first so the logging middleware can report it
	return RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}
