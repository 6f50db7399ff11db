package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
)

// Profile returns the authenticated identity together with the
// capability flags the client gates its controls on.
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c)
		if !ok {
			return
		}
		user := claims.User()
		c.JSON(http.StatusOK, gin.H{
			"status":            "OK",
			"user_id":           user.ID,
			"email":             user.Email,
			"role":              user.Role,
			"can_create_events": identity.CanCreateEvents(user),
		})
	}
}

// SignOut revokes the session with the identity provider and clears the
// auth cookies.
func SignOut(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := provider.SignOut(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		isProduction := os.Getenv("GIN_MODE") == "production"
		c.SetCookie("access_token", "", -1, "/", "", isProduction, true)
		c.SetCookie("refresh_token", "", -1, "/", "", isProduction, true)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Signed out"))
	}
}
