package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/internal/domain"
	"github.com/yourusername/tubegrab-go/internal/metrics"
	"github.com/yourusername/tubegrab-go/pkg/logger"
)

// FileRemover is the part of the file store the reaper needs
type FileRemover interface {
	Remove(path string) error
	ListOlderThan(age time.Duration) ([]string, error)
}

// Reaper deletes served files once their grace period has passed and sweeps
// files nobody ever fetched
type Reaper struct {
	files    FileRemover
	repo     domain.JobRepository
	config   *domain.DownloadConfig
	logger   *logger.LoggerAdapter
	mu       sync.Mutex
	pending  map[string]time.Time // path -> deadline
	running  bool
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewReaper creates a new reaper; repo may be nil
func NewReaper(
	files FileRemover,
	repo domain.JobRepository,
	config *domain.DownloadConfig,
	logger *logger.LoggerAdapter,
) *Reaper {
	return &Reaper{
		files:    files,
		repo:     repo,
		config:   config,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}
}

// Start starts the reaper loop
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reaper already running")
	}
	r.running = true
	stop := make(chan struct{})
	r.stopChan = stop
	r.mu.Unlock()

	r.logger.Reaper().Info("reaper_started",
		zap.Duration("grace_period", r.config.GracePeriod),
		zap.Duration("max_file_age", r.config.MaxFileAge))

	r.workerWg.Add(1)
	go r.loop(ctx, stop)

	return nil
}

// Stop stops the loop and then drains or cancels what is still pending
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("reaper not running")
	}
	r.running = false
	stop := r.stopChan
	r.mu.Unlock()

	close(stop)
	r.workerWg.Wait()

	if r.config.DrainOnShutdown {
		removed := r.reap(func(time.Time) bool { return true })
		r.logger.Reaper().Info("reaper_stopped", zap.String("mode", "drain"), zap.Int("removed", removed))
		return nil
	}

	r.mu.Lock()
	left := len(r.pending)
	r.pending = make(map[string]time.Time)
	r.mu.Unlock()
	r.logger.Reaper().Info("reaper_stopped", zap.String("mode", "cancel"), zap.Int("left_on_disk", left))
	return nil
}

// IsRunning returns whether the reaper loop is running
func (r *Reaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Pending returns the number of files waiting for deletion
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Schedule marks path for deletion after the grace period and returns the deadline.
// Scheduling a path again pushes its deadline back.
func (r *Reaper) Schedule(path string) time.Time {
	deadline := time.Now().Add(r.config.GracePeriod)

	r.mu.Lock()
	r.pending[path] = deadline
	r.mu.Unlock()

	r.logger.Reaper().Info("file_scheduled",
		zap.String("path", path),
		zap.Time("deadline", deadline))
	return deadline
}

func (r *Reaper) loop(ctx context.Context, stop <-chan struct{}) {
	defer r.workerWg.Done()

	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	sweepTicker := time.NewTicker(r.config.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-ticker.C:
			r.reap(func(deadline time.Time) bool { return !deadline.After(now) })
		case <-sweepTicker.C:
			r.sweep()
		}
	}
}

// reap deletes every pending file whose deadline satisfies due
func (r *Reaper) reap(due func(deadline time.Time) bool) int {
	r.mu.Lock()
	var paths []string
	for path, deadline := range r.pending {
		if due(deadline) {
			paths = append(paths, path)
			delete(r.pending, path)
		}
	}
	r.mu.Unlock()

	removed := 0
	for _, path := range paths {
		if r.remove(path, "grace_expired") {
			removed++
		}
	}
	return removed
}

// sweep removes files older than the maximum age that nobody scheduled
func (r *Reaper) sweep() int {
	paths, err := r.files.ListOlderThan(r.config.MaxFileAge)
	if err != nil {
		r.logger.LogError(logger.CategoryReaper, "sweep_failed", zap.Error(err))
		return 0
	}

	removed := 0
	for _, path := range paths {
		r.mu.Lock()
		_, scheduled := r.pending[path]
		r.mu.Unlock()
		if scheduled {
			continue
		}
		if r.remove(path, "orphan") {
			removed++
		}
	}
	if removed > 0 {
		r.logger.Reaper().Info("sweep_finished", zap.Int("removed", removed))
	}
	return removed
}

func (r *Reaper) remove(path, reason string) bool {
	if err := r.files.Remove(path); err != nil {
		r.logger.LogError(logger.CategoryReaper, "file_delete_failed",
			zap.String("path", path),
			zap.String("reason", reason),
			zap.Error(err))
		return false
	}

	metrics.FilesReaped.Inc()
	r.logger.Reaper().Info("file_reaped",
		zap.String("path", path),
		zap.String("reason", reason))

	if r.repo != nil {
		if err := r.repo.MarkReaped(filepath.Base(path)); err != nil {
			r.logger.LogError(logger.CategoryReaper, "ledger_update_failed",
				zap.String("path", path),
				zap.Error(err))
		}
	}
	return true
}
