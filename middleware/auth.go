// Package middleware contains the request-lifecycle hooks: the
// authentication gate and Prometheus request metrics.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"studyhub/auth"
	"studyhub/models"
)

// SessionResolver resolves a verified session id to its owning user.
// Implemented by auth.Resolver; stubbed in tests.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID int, ident auth.Identity) (*models.User, error)
}

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
)

// Gate runs the session resolver for every request it wraps.
type Gate struct {
	Resolver  SessionResolver
	Transport auth.CredentialTransport
	Logger    *slog.Logger
}

// WithUser is the soft gate: it attaches the authenticated user (and the
// presented session id) to the request context when the credential resolves,
// and passes the request through anonymously otherwise. Invalid credentials
// and revoked sessions are indistinguishable from no credential at all.
func (g *Gate) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok, err := g.Transport.Extract(r)
		if !ok || err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := g.Resolver.Resolve(r.Context(), sessionID, auth.IdentityFromRequest(r))
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrInvalidCredential) {
			g.Transport.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			g.Logger.Error("session resolution failed", "session", sessionID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, sessionKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth is the strict gate: layered inside WithUser, it turns an
// anonymous request into a hard 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// SessionFrom returns the session id the current credential resolved to.
func SessionFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(sessionKey).(int)
	return id, ok
}
