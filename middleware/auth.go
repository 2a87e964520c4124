package middleware

import (
	"net/http"
	"strings"

	"joservice/models"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// JWTAuthMiddleware validates the bearer token and stores the caller's
// principal in the context. The websocket upgrade may pass it as ?token=.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		principal, err := utils.ExtractPrincipalFromToken(tokenString)
		if err != nil {
			utils.GetLogger().Debug("token rejected", zap.String("ip", getClientIP(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole rejects principals of any other role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok || p.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access restricted to " + role.String() + "s"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by JWTAuthMiddleware.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok && p.Valid()
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return c.Query("token")
}
