package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth/entity"
)

// UserLookup resolves the username carried by a verified token.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*entity.User)
	return u, ok && u != nil
}

// RequireUser rejects requests without a valid bearer token whose user still
// exists, and otherwise passes the user down in the request context.
func RequireUser(verifier TokenVerifier, users UserLookup, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			p, err := verifier.Verify(token)
			if err != nil {
				logger.Debugw("token rejected", "err", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			u, err := users.GetByUsername(r.Context(), p.Username)
			if err != nil {
				logger.Debugw("token user lookup failed", "username", p.Username, "err", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	t := strings.TrimSpace(h[len("bearer "):])
	return t, t != ""
}
