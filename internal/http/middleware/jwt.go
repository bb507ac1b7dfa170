package middleware

import (
	"net/http"
	"strings"

	"flip_royale/internal/service"

	"github.com/gin-gonic/gin"
)

// SubjectKey holds the authenticated service subject in the gin context
const SubjectKey = "subject"

// ServiceJWT requires a bearer token issued to role
func ServiceJWT(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "token required", "code": "authentication_failed", "retryable": false})
			return
		}

		sub, tokenRole, err := service.ParseServiceToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token", "code": "authentication_failed", "retryable": false})
			return
		}
		if tokenRole != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden", "code": "authentication_failed", "retryable": false})
			return
		}

		c.Set(SubjectKey, sub)
		c.Next()
	}
}
