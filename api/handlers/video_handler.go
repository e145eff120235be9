package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/internal/app"
	"github.com/yourusername/tubegrab-go/internal/domain"
)

// VideoService is the orchestrator surface used by VideoHandler
type VideoService interface {
	Analyze(ctx context.Context, rawURL string) (*domain.VideoMetadata, error)
	Download(ctx context.Context, req domain.DownloadRequest) (*app.DownloadResult, error)
}

// VideoHandler handles analyze and download requests
type VideoHandler struct {
	service VideoService
	logger  *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(service VideoService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		service: service,
		logger:  logger,
	}
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required,video_url"`
}

// AnalyzeResponse is the humanized view of a probe
type AnalyzeResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Channel   string                `json:"channel"`
	Duration  string                `json:"duration"`
	Views     string                `json:"views"`
	Thumbnail string                `json:"thumbnail"`
	Formats   []domain.FormatOption `json:"formats"`
}

// DownloadRequest is the body of POST /api/download
type DownloadRequest struct {
	URL      string `json:"url" binding:"required,video_url"`
	Quality  string `json:"quality" binding:"required"`
	FormatID string `json:"format_id,omitempty"`
}

// DownloadResponse describes the produced file
type DownloadResponse struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	Size        string `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// Analyze handles POST /api/analyze
func (h *VideoHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	meta, err := h.service.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		h.respondError(c, err, "failed to fetch video info")
		return
	}

	formats := meta.Formats
	if formats == nil {
		formats = []domain.FormatOption{}
	}
	c.JSON(http.StatusOK, AnalyzeResponse{
		ID:        meta.ID,
		Title:     meta.Title,
		Channel:   meta.Channel,
		Duration:  domain.FormatDuration(meta.DurationSeconds),
		Views:     domain.FormatViews(meta.ViewCount),
		Thumbnail: meta.ThumbnailURL,
		Formats:   formats,
	})
}

// Download handles POST /api/download
func (h *VideoHandler) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.service.Download(c.Request.Context(), domain.DownloadRequest{
		URL:      req.URL,
		Quality:  req.Quality,
		FormatID: req.FormatID,
	})
	if err != nil {
		h.respondError(c, err, "download failed")
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		Success:     true,
		Filename:    result.Filename,
		Size:        domain.FormatSize(result.SizeBytes),
		DownloadURL: result.DownloadURL,
	})
}

// respondError maps domain errors to status codes; extractor output is logged, never returned
func (h *VideoHandler) respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var ve *domain.ValidationError
	var ee *domain.ExtractionError
	switch {
	case errors.As(err, &ve):
		writeError(c, http.StatusBadRequest, ve.Error())
	case domain.IsNotFound(err):
		writeError(c, http.StatusInternalServerError, "downloaded file not found")
	case errors.As(err, &ee) && ee.Timeout:
		writeError(c, http.StatusInternalServerError, fallback+": timed out")
	default:
		h.logger.Warn("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		writeError(c, http.StatusInternalServerError, fallback)
	}
}
