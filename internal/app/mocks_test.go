package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yourusername/tubegrab-go/internal/domain"
)

// mockRepo implements domain.JobRepository for testing
type mockRepo struct {
	mu     sync.Mutex
	jobs   map[string]domain.DownloadJob
	order  []string
	reaped []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{jobs: make(map[string]domain.DownloadJob)}
}

func (m *mockRepo) Create(job *domain.DownloadJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	m.order = append(m.order, job.ID)
	return nil
}

func (m *mockRepo) Update(job *domain.DownloadJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockRepo) FindByID(id string) (*domain.DownloadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (m *mockRepo) FindByFilename(filename string) (*domain.DownloadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.Filename == filename {
			j := job
			return &j, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (m *mockRepo) FindRecent(state domain.JobState, limit int) ([]*domain.DownloadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.DownloadJob
	for i := len(m.order) - 1; i >= 0; i-- {
		job := m.jobs[m.order[i]]
		if state != "" && job.State != state {
			continue
		}
		out = append(out, &job)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockRepo) MarkReaped(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reaped = append(m.reaped, filename)
	return nil
}

func (m *mockRepo) Prune(keep int) (int64, error) { return 0, nil }

func (m *mockRepo) GetStats() (*domain.JobStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.JobStats{Total: int64(len(m.jobs))}
	for _, job := range m.jobs {
		switch job.State {
		case domain.StateCompleted:
			stats.Completed++
		case domain.StateFailed:
			stats.Failed++
		default:
			stats.Active++
		}
	}
	return stats, nil
}

func (m *mockRepo) reapedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reaped...)
}

// fakeExtractor implements domain.Extractor without touching the network
type fakeExtractor struct {
	mu             sync.Mutex
	video          *domain.RawVideo
	probeErr       error
	materializeErr error
	// ext of the file written by Materialize; empty writes nothing
	ext   string
	calls []domain.ExtractOptions
	// when set, Materialize writes this name instead of stem.ext
	rename string
}

func newFakeExtractor() *fakeExtractor {
	height := 720
	return &fakeExtractor{
		video: &domain.RawVideo{
			ID:    "dQw4w9WgXcQ",
			Title: "My Video! #1 (HD)",
			Formats: []domain.RawFormat{
				{FormatID: "22", Ext: "mp4", Height: &height, VCodec: "avc1", ACodec: "mp4a"},
				{FormatID: "313", Ext: "webm", Height: &height, VCodec: "vp9", ACodec: "none"},
				{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a"},
			},
		},
		ext: "mp3",
	}
}

func (f *fakeExtractor) Probe(ctx context.Context, url string) (*domain.RawVideo, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.video, nil
}

func (f *fakeExtractor) Materialize(ctx context.Context, url, dir, stem string, opts domain.ExtractOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()

	if f.materializeErr != nil {
		return f.materializeErr
	}
	if f.ext == "" {
		return nil
	}
	name := fmt.Sprintf("%s.%s", stem, f.ext)
	if f.rename != "" {
		name = f.rename
	}
	return os.WriteFile(filepath.Join(dir, name), []byte("media:"+stem), 0644)
}

func (f *fakeExtractor) lastOptions() domain.ExtractOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}
