package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/internal/domain"
)

const (
	defaultJobLimit = 50
	maxJobLimit     = 500
)

// JobService is the ledger surface used by JobHandler
type JobService interface {
	Jobs(state domain.JobState, limit int) ([]*domain.DownloadJob, error)
	Job(id string) (*domain.DownloadJob, error)
	Stats() (*domain.JobStats, error)
}

// JobHandler exposes the job ledger
type JobHandler struct {
	service JobService
	logger  *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(service JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		service: service,
		logger:  logger,
	}
}

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultJobLimit)))
	if err != nil || limit <= 0 {
		limit = defaultJobLimit
	}
	if limit > maxJobLimit {
		limit = maxJobLimit
	}

	jobs, err := h.service.Jobs(domain.JobState(c.Query("status")), limit)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to list jobs", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*domain.DownloadJob{}
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			writeError(c, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("Failed to get job", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "failed to get job")
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetStats handles GET /api/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "failed to get stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
