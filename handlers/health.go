package handlers

import (
	"net/http"

	"cleanly/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency check. It answers 503 when a
// configured dependency failed its last ping.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	healthy := (status.Mongo == nil || *status.Mongo) && (status.Redis == nil || *status.Redis)
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "dependencies": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Cleanly", "dependencies": status})
}
