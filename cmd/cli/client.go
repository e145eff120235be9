package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/tubegrab-go/api/handlers"
	"github.com/yourusername/tubegrab-go/internal/domain"
)

// apiClient talks to a running TubeGrab server
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx response
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func decodeAPIError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return &apiError{Status: status, Message: http.StatusText(status)}
	}
	return &apiError{Status: status, Message: body.Error}
}

func (c *apiClient) Analyze(videoURL string) (*handlers.AnalyzeResponse, error) {
	var out handlers.AnalyzeResponse
	if err := c.do(http.MethodPost, "/api/analyze", handlers.AnalyzeRequest{URL: videoURL}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Download(req handlers.DownloadRequest) (*handlers.DownloadResponse, error) {
	var out handlers.DownloadResponse
	if err := c.do(http.MethodPost, "/api/download", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Jobs(status string, limit int) ([]domain.DownloadJob, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []domain.DownloadJob
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) Stats() (*domain.JobStats, error) {
	var out domain.JobStats
	if err := c.do(http.MethodGet, "/api/jobs/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Health() (*handlers.HealthResponse, error) {
	var out handlers.HealthResponse
	if err := c.do(http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch streams downloadURL into dir and returns the written path and size
func (c *apiClient) Fetch(downloadURL, fallbackName, dir string) (string, int64, error) {
	resp, err := c.http.Get(c.baseURL + downloadURL)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", 0, decodeAPIError(resp.StatusCode, data)
	}

	name := fallbackName
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	name = filepath.Base(name)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, name)
	tmp := path + ".part"

	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, err
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr != nil {
			return "", 0, copyErr
		}
		return "", 0, closeErr
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", 0, err
	}
	return path, n, nil
}
