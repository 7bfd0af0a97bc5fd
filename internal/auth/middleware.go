package auth

import (
	"context"
	"net/http"
)

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated user stored by the middleware,
// or nil when the request was not authenticated.
func UserFromContext(ctx context.Context) *UserInfo {
	u, _ := ctx.Value(userKey).(*UserInfo)
	return u
}

// WithUser returns a context carrying the given user identity.
// Exposed for tests that exercise handlers directly.
func WithUser(ctx context.Context, u *UserInfo) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Middleware builds Require/Optional wrappers around an Authorizer.
type Middleware struct {
	authorizer Authorizer
}

func NewMiddleware(a Authorizer) *Middleware {
	return &Middleware{authorizer: a}
}

// Require rejects the request with 401 unless a valid bearer credential is
// presented; on success the resolved identity is placed on the context.
func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractBearerToken(r)
		if err != nil {
			writeUnauthorized(w, err.Error())
			return
		}
		user, err := m.authorizer.Authorize(r.Context(), token)
		if err != nil {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// Optional resolves an identity when a credential is present but lets
// unauthenticated requests through with no user on the context.
func (m *Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, err := ExtractBearerToken(r); err == nil {
			if user, err := m.authorizer.Authorize(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next(w, r)
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"Unauthorized","message":"` + msg + `"}`))
}
