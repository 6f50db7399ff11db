package models

import (
	"context"

	"github.com/foroapp/server/internal/store"
)

// Roles stored on the user document. Event creation is gated on
// RoleAdmin; the gate is enforced client-side here and should also be
// mirrored in the store's own access rules, which this service cannot
// guarantee.
const (
	RoleAdmin  = "admin"
	RoleNormal = "normal"
	RoleGuest  = "guest"
)

type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type UserRepo interface {
	// GetUserRole reads the role field of users/{userId}. Absent user
	// documents and absent role fields both resolve to RoleNormal.
	GetUserRole(ctx context.Context, userID string) (string, error)
}

func (r *StoreRepo) GetUserRole(ctx context.Context, userID string) (string, error) {
	doc, err := r.ds.Get(ctx, UserPath(userID))
	if err != nil {
		if err == store.ErrNotFound {
			return RoleNormal, nil
		}
		return "", WrapStore("get user role", err)
	}
	role := doc.StringField("role")
	if role == "" {
		role = RoleNormal
	}
	return role, nil
}
