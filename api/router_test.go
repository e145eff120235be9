package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/api/handlers"
	"github.com/yourusername/tubegrab-go/internal/app"
	"github.com/yourusername/tubegrab-go/internal/domain"
	"github.com/yourusername/tubegrab-go/internal/infrastructure"
	"github.com/yourusername/tubegrab-go/pkg/logger"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type stubExtractor struct {
	mu             sync.Mutex
	probeErr       error
	materializeErr error
	probes         int
}

func (s *stubExtractor) Probe(ctx context.Context, url string) (*domain.RawVideo, error) {
	s.mu.Lock()
	s.probes++
	s.mu.Unlock()
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	height := 720
	duration := 213.0
	views := int64(2_500_000)
	return &domain.RawVideo{
		ID:        "dQw4w9WgXcQ",
		Title:     "My Video! #1 (HD)",
		Channel:   "Rick Astley",
		Duration:  &duration,
		ViewCount: &views,
		Thumbnail: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Formats: []domain.RawFormat{
			{FormatID: "22", Ext: "mp4", Height: &height, VCodec: "avc1", ACodec: "mp4a"},
			{FormatID: "313", Ext: "webm", Height: &height, VCodec: "vp9", ACodec: "none"},
			{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
		},
	}, nil
}

func (s *stubExtractor) Materialize(ctx context.Context, url, dir, stem string, opts domain.ExtractOptions) error {
	if s.materializeErr != nil {
		return s.materializeErr
	}
	ext := "mp4"
	if opts.ExtractAudio {
		ext = opts.AudioFormat
	}
	return os.WriteFile(filepath.Join(dir, stem+"."+ext), []byte("media bytes for "+stem), 0644)
}

func (s *stubExtractor) probeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probes
}

type testServer struct {
	router    *gin.Engine
	extractor *stubExtractor
	files     *infrastructure.FileStore
	reaper    *app.Reaper
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	config := domain.DefaultConfig()
	config.Download.Dir = t.TempDir()
	config.Download.GracePeriod = 100 * time.Millisecond
	config.Download.CheckInterval = 10 * time.Millisecond
	config.Ledger.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())

	files, err := infrastructure.NewFileStore(config.Download.Dir)
	require.NoError(t, err)
	require.NoError(t, files.Ensure())

	repo, err := infrastructure.NewSQLiteJobRepository(config.Ledger.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logAdapter := logger.NewSingleLoggerAdapter(zap.NewNop())
	extractor := &stubExtractor{}
	orch := app.NewOrchestrator(extractor, files, repo, nil, config, logAdapter)
	reaper := app.NewReaper(files, repo, &config.Download, logAdapter)
	require.NoError(t, reaper.Start(context.Background()))
	t.Cleanup(func() {
		if reaper.IsRunning() {
			reaper.Stop()
		}
	})

	router, err := SetupRouter(Dependencies{
		Orchestrator: orch,
		Reaper:       reaper,
		Files:        files,
		Logger:       logAdapter,
		LogsDir:      t.TempDir(),
	})
	require.NoError(t, err)

	return &testServer{router: router, extractor: extractor, files: files, reaper: reaper}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/analyze", gin.H{"url": testVideoURL})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dQw4w9WgXcQ", resp.ID)
	assert.Equal(t, "Rick Astley", resp.Channel)
	assert.Equal(t, "3:33", resp.Duration)
	assert.Equal(t, "2.5M", resp.Views)
	require.Len(t, resp.Formats, 2)
	assert.Equal(t, "720p", resp.Formats[0].QualityLabel)
	assert.Equal(t, "audio", resp.Formats[1].QualityLabel)
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"unsupported host", gin.H{"url": "https://vimeo.com/123"}, "invalid YouTube URL"},
		{"missing url", gin.H{}, "URL is required"},
		{"not json", nil, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
			assert.Equal(t, 0, s.extractor.probeCount())
		})
	}
}

func TestAnalyze_ExtractionFailureHidesDetails(t *testing.T) {
	s := newTestServer(t)
	s.extractor.probeErr = &domain.ExtractionError{Op: "probe", Message: "ERROR: secret stderr output"}

	w := s.do(t, http.MethodPost, "/api/analyze", gin.H{"url": testVideoURL})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to fetch video info", decodeError(t, w))
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestDownloadThenFetchThenReaped(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/download", gin.H{"url": testVideoURL, "quality": "audio"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.DownloadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, strings.HasSuffix(resp.Filename, ".mp3"))
	assert.True(t, strings.HasPrefix(resp.DownloadURL, "/download/My%20Video%201%20HD_audio-"))

	path := filepath.Join(s.files.Dir(), resp.Filename)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatSize(int64(len(content))), resp.Size)

	// fetch
	w = s.do(t, http.MethodGet, resp.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="`+resp.Filename+`"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprint(len(content)), w.Header().Get("Content-Length"))
	assert.Equal(t, content, w.Body.Bytes())

	// still there during the grace period, gone after it
	assert.Equal(t, 1, s.reaper.Pending())
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, 3*time.Second, 10*time.Millisecond)

	w = s.do(t, http.MethodGet, resp.DownloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// ledger reflects the reap
	w = s.do(t, http.MethodGet, "/api/jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []domain.DownloadJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, "/api/jobs/"+jobs[0].ID, nil)
		var job domain.DownloadJob
		return json.Unmarshal(w.Body.Bytes(), &job) == nil && job.Reaped
	}, time.Second, 10*time.Millisecond)
}

func TestServe_MissingFileSchedulesNothing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/download/nonexistent.mp4", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "file not found", decodeError(t, w))
	assert.Equal(t, 0, s.reaper.Pending())
}

func TestServe_RejectsTraversal(t *testing.T) {
	s := newTestServer(t)

	secret := filepath.Join(filepath.Dir(s.files.Dir()), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("nope"), 0644))

	for _, path := range []string{"/download/..", "/download/a..b.mp4", "/download/..%5Csecret.txt"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.NotEqual(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), "nope", path)
	}
	assert.Equal(t, 0, s.reaper.Pending())
}

func TestDownload_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    gin.H
		setup   func(e *stubExtractor)
		status  int
		message string
	}{
		{
			name:    "quality without resolution",
			body:    gin.H{"url": testVideoURL, "quality": "best"},
			setup:   func(e *stubExtractor) {},
			status:  http.StatusBadRequest,
			message: "invalid quality: no resolution in quality \"best\"",
		},
		{
			name:    "missing quality",
			body:    gin.H{"url": testVideoURL},
			setup:   func(e *stubExtractor) {},
			status:  http.StatusBadRequest,
			message: "Quality is required",
		},
		{
			name: "extractor fails",
			body: gin.H{"url": testVideoURL, "quality": "720p", "format_id": "22"},
			setup: func(e *stubExtractor) {
				e.materializeErr = &domain.ExtractionError{Op: "materialize", Message: "HTTP Error 403"}
			},
			status:  http.StatusInternalServerError,
			message: "download failed",
		},
		{
			name: "extractor times out",
			body: gin.H{"url": testVideoURL, "quality": "audio"},
			setup: func(e *stubExtractor) {
				e.materializeErr = &domain.ExtractionError{Op: "materialize", Message: "timed out", Timeout: true}
			},
			status:  http.StatusInternalServerError,
			message: "download failed: timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			tt.setup(s.extractor)

			w := s.do(t, http.MethodPost, "/api/download", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w))
		})
	}
}

func TestJobsEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/download", gin.H{"url": testVideoURL, "quality": "720p", "format_id": "22"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []domain.DownloadJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.StateCompleted, jobs[0].State)
	assert.Equal(t, "22", jobs[0].FormatID)

	w = s.do(t, http.MethodGet, "/api/jobs/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.JobStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)

	w = s.do(t, http.MethodGet, "/api/jobs/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/jobs?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Reaper.Running)

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, s.reaper.Stop())
	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLandingPageAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "TubeGrab")

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/logs/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reaper")

	w = s.do(t, http.MethodGet, "/api/logs/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/logs/job?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/logs/job", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/logs/job/export?date=2001-01-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
