package helpers

import "github.com/foroapp/server/internal/identity"

// SessionClaims is the request-scoped identity assembled by the auth
// middleware: token claims plus the role read from the user document.
type SessionClaims struct {
	*CustomClaims
	Role   string `json:"role"`
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
}

func (sc *SessionClaims) IsAdmin() bool {
	return sc.Role == "admin"
}

func (sc *SessionClaims) GetSafeRole() string {
	if sc.Role == "" {
		return "guest"
	}
	return sc.Role
}

// User converts the claims into the identity record the services consume.
func (sc *SessionClaims) User() identity.User {
	return identity.User{
		ID:    sc.UserID,
		Email: sc.Email,
		Role:  sc.GetSafeRole(),
	}
}
