package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and which optional backends are active, so
// operators and the CLI can tell a degraded deployment from a healthy
// one without probing every dependency directly.
func (h *Handlers) Health(c *gin.Context) {
	k := h.Kernel()

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"features": gin.H{
			"redis_rate_limit": k.Cache() != nil,
			"s3_export_mirror": k.Config() != nil && k.Config().ExportS3Bucket != "",
			"otel":             k.Config() != nil && k.Config().OTELEnabled,
		},
	})
}
