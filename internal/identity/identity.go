// Package identity abstracts the external identity provider. The core
// never talks to the auth backend directly; it asks the injected
// Provider for the current user and signs out through it.
package identity

import (
	"context"

	"github.com/foroapp/server/internal/models"
)

// User is the identity the provider vouches for on a request.
type User struct {
	ID    string
	Email string
	Role  string
}

type Provider interface {
	// CurrentUser returns the authenticated user for this context, or
	// models.ErrNotAuthenticated when there is none.
	CurrentUser(ctx context.Context) (User, error)
	// SignOut revokes the current session with the identity backend.
	SignOut(ctx context.Context) error
}

// CanCreateEvents is the capability check behind event creation. Only
// admins may create events. This is consulted by the API surface and by
// the event service, but it is client-side policy: the store's own
// access rules are the real boundary and are outside this process.
func CanCreateEvents(u User) bool {
	return u.Role == models.RoleAdmin
}

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// WithUser stamps the authenticated user onto the context. Done by the
// auth middleware once per request.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// WithAccessToken carries the raw access token so SignOut can revoke it.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func userFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

func tokenFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}
