package identity

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/foroapp/server/internal/models"
)

// SupabaseProvider resolves the current user from context values placed
// there by the auth middleware and revokes sessions against GoTrue.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(client *supabase.Client) *SupabaseProvider {
	return &SupabaseProvider{client: client}
}

var _ Provider = (*SupabaseProvider)(nil)

func (p *SupabaseProvider) CurrentUser(ctx context.Context) (User, error) {
	u, ok := userFrom(ctx)
	if !ok || u.ID == "" {
		return User{}, models.ErrNotAuthenticated
	}
	return u, nil
}

func (p *SupabaseProvider) SignOut(ctx context.Context) error {
	token, ok := tokenFrom(ctx)
	if !ok || token == "" {
		return models.ErrNotAuthenticated
	}
	if err := p.client.Auth.WithToken(token).Logout(); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Static is a fixed-identity provider for tests and local tooling. A
// zero Static behaves as signed out.
type Static struct {
	User User
}

var _ Provider = Static{}

func (s Static) CurrentUser(ctx context.Context) (User, error) {
	if s.User.ID == "" {
		return User{}, models.ErrNotAuthenticated
	}
	return s.User, nil
}

func (s Static) SignOut(ctx context.Context) error { return nil }
