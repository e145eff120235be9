package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health
const Version = "1.0.0"

// ReaperStatus is the reaper surface used by health checks
type ReaperStatus interface {
	IsRunning() bool
	Pending() int
}

// DirectoryChecker verifies the download directory is usable
type DirectoryChecker interface {
	Ensure() error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	reaper ReaperStatus
	dir    DirectoryChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reaper ReaperStatus, dir DirectoryChecker) *HealthHandler {
	return &HealthHandler{
		reaper: reaper,
		dir:    dir,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Reaper  struct {
		Running bool `json:"running"`
		Pending int  `json:"pending"`
	} `json:"reaper"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Reaper.Running = h.reaper.IsRunning()
	response.Reaper.Pending = h.reaper.Pending()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.reaper.IsRunning() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "reaper not running",
		})
		return
	}
	if err := h.dir.Ensure(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "download directory not writable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
