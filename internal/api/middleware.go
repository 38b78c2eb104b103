package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"campusmerch/internal/auth"
	"campusmerch/pkg/apperror"
)

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	Verify(token string) (auth.Session, error)
}

// AuthMiddleware requires a valid bearer token and stores the session in the
// request context.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			_ = c.Error(apperror.Unauthorized("Unauthorized", nil))
			c.Abort()
			return
		}

		session, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(apperror.Unauthorized("Unauthorized", err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
		c.Next()
	}
}
