package handlers

import (
	"net/http"

	"joservice/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency health snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	if status.CheckedAt.IsZero() {
		c.JSON(http.StatusOK, gin.H{"healthy": true, "status": "starting"})
		return
	}

	healthy := status.Mongo
	for _, ok := range status.Redis {
		healthy = healthy && ok
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": healthy, "status": status})
}
