package middleware

import (
	"context"
	"strings"

	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to a live admin session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.AuthSession, error)
}

// bearerToken reads "Authorization: Bearer ...". EventSource clients cannot
// set headers, so a token query parameter is accepted as well.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// JWTAuthAdminMiddleware requires a valid admin token whose session has not
// been revoked.
func JWTAuthAdminMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.RespondError(c, "Unauthorized", err)
			c.Abort()
			return
		}
		c.Set("adminToken", token)
		c.Set("adminID", session.AdminID)
		c.Set("adminEmail", session.Email)
		c.Next()
	}
}
