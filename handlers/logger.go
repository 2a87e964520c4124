package handlers

import (
	"net/http"

	"joservice/middleware"
	"joservice/models"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a Zap logger from the Gin context or falls back to the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// mustPrincipal returns the authenticated caller or writes a 401.
func mustPrincipal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		getLogger(c).Warn("principal missing from context", zap.String("path", c.FullPath()))
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "authentication required")
		c.Abort()
		return models.Principal{}, false
	}
	return p, true
}
