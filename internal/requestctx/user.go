// Package requestctx carries the caller's user id through request contexts.
package requestctx

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// HeaderUserID is the request header identifying the caller.
const HeaderUserID = "X-User-ID"

// DefaultUserID is used when no header is sent (single-user local installs).
const DefaultUserID = "local"

var validUserID = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,128}$`)

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the user id stored in ctx, or DefaultUserID.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultUserID
}

// Middleware reads X-User-ID into the request context. Malformed ids are rejected with 400.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			userID = DefaultUserID
		}
		if !validUserID.MatchString(userID) {
			http.Error(w, "invalid "+HeaderUserID+" header", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
