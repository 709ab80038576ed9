package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and which provider slots are configured.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"providers": h.service.ProviderNames(),
	})
}
