package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/internal/domain"
	"github.com/yourusername/tubegrab-go/internal/metrics"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// FileResolver maps a download token to a path inside the download directory
type FileResolver interface {
	Resolve(token string) (string, error)
}

// DeletionScheduler schedules a served file for deletion
type DeletionScheduler interface {
	Schedule(path string) time.Time
}

// FileHandler streams produced files and hands them to the reaper
type FileHandler struct {
	files  FileResolver
	reaper DeletionScheduler
	logger *zap.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files FileResolver, reaper DeletionScheduler, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		files:  files,
		reaper: reaper,
		logger: logger,
	}
}

// Serve handles GET /download/:filename
func (h *FileHandler) Serve(c *gin.Context) {
	token := c.Param("filename")

	path, err := h.files.Resolve(token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPath):
			writeError(c, http.StatusBadRequest, "invalid filename")
		case domain.IsNotFound(err):
			writeError(c, http.StatusNotFound, "file not found")
		default:
			h.logger.Error("resolve failed", zap.String("filename", token), zap.Error(err))
			writeError(c, http.StatusInternalServerError, "failed to read file")
		}
		return
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(c, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("open failed", zap.String("path", path), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.logger.Error("stat failed", zap.String("path", path), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	name := filepath.Base(path)
	c.Header("Content-Disposition", `attachment; filename="`+quoteEscaper.Replace(name)+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, f)
	if err != nil || written != info.Size() {
		// partial transfer: the file stays for a retry and the sweep collects it eventually
		h.logger.Warn("transfer incomplete",
			zap.String("path", path),
			zap.Int64("written", written),
			zap.Int64("size", info.Size()),
			zap.Error(err))
		return
	}

	metrics.FilesServed.Inc()
	metrics.BytesServed.Add(float64(written))
	h.reaper.Schedule(path)
}
