package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradehub/internal/service"
	"github.com/tradehub/pkg/response"
)

// SystemHandler serves health checks and development utilities
type SystemHandler struct {
	devService *service.DevService
	version    string
	now        func() time.Time
}

// NewSystemHandler creates a new SystemHandler. A nil devService leaves the
// development routes unregistered.
func NewSystemHandler(devService *service.DevService, version string) *SystemHandler {
	return &SystemHandler{devService: devService, version: version, now: time.Now}
}

// Health reports that the server is up
// GET /health, GET /api/health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// ClearData deletes all stored data
// DELETE /api/dev/clear-data
func (h *SystemHandler) ClearData(c *gin.Context) {
	if err := h.devService.ClearData(c.Request.Context()); err != nil {
		respondError(c, "clear data", err)
		return
	}
	response.SuccessMessage(c, "All data cleared successfully", nil)
}

// RegisterRoutes registers health and development routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	if h.devService != nil {
		rg.DELETE("/dev/clear-data", h.ClearData)
	}
}
