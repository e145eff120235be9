package app

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/tubegrab-go/internal/domain"
	"github.com/yourusername/tubegrab-go/internal/metrics"
	"github.com/yourusername/tubegrab-go/pkg/logger"
)

// FileLocator is the part of the file store the orchestrator needs
type FileLocator interface {
	Dir() string
	LocateByStem(stem string) (string, error)
	LocateProducedFile(safeBaseName, quality string) (string, error)
	Size(path string) (int64, error)
}

// Notifier announces finished jobs
type Notifier interface {
	NotifyJobCompleted(job *domain.DownloadJob)
	NotifyJobFailed(job *domain.DownloadJob)
}

// DownloadResult is what a completed job hands back to the client
type DownloadResult struct {
	Job         *domain.DownloadJob
	Filename    string
	SizeBytes   int64
	DownloadURL string
}

// Orchestrator runs Analyze and Download requests against the extractor
type Orchestrator struct {
	extractor domain.Extractor
	files     FileLocator
	repo      domain.JobRepository
	notifier  Notifier
	config    *domain.Config
	logger    *logger.LoggerAdapter
}

// NewOrchestrator creates a new orchestrator; repo and notifier may be nil
func NewOrchestrator(
	extractor domain.Extractor,
	files FileLocator,
	repo domain.JobRepository,
	notifier Notifier,
	config *domain.Config,
	logger *logger.LoggerAdapter,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		files:     files,
		repo:      repo,
		notifier:  notifier,
		config:    config,
		logger:    logger,
	}
}

// DownloadURL is the client-facing path for a produced file
func DownloadURL(filename string) string {
	return "/download/" + url.PathEscape(filename)
}

// Analyze validates rawURL, probes it and returns its metadata with the filtered catalog
func (o *Orchestrator) Analyze(ctx context.Context, rawURL string) (*domain.VideoMetadata, error) {
	if !domain.IsSupportedURL(rawURL) {
		metrics.AnalyzeTotal.WithLabelValues("invalid").Inc()
		return nil, &domain.ValidationError{Field: "url", Message: "unsupported video URL"}
	}

	raw, err := o.probe(ctx, rawURL)
	if err != nil {
		metrics.AnalyzeTotal.WithLabelValues(metrics.ResultFailure).Inc()
		o.logger.LogError(logger.CategoryJob, "analyze_failed",
			zap.String("url", rawURL),
			zap.Error(err))
		return nil, err
	}

	meta := domain.NewVideoMetadata(raw)
	metrics.AnalyzeTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	o.logger.Job().Info("video_analyzed",
		zap.String("url", rawURL),
		zap.String("video_id", meta.ID),
		zap.Int("formats", len(meta.Formats)),
		zap.Int("raw_formats", len(raw.Formats)))
	return meta, nil
}

// Download runs one job through validate, probe, materialize and locate.
// Failures come back as *domain.JobError naming the stage.
func (o *Orchestrator) Download(ctx context.Context, req domain.DownloadRequest) (*DownloadResult, error) {
	job := domain.NewDownloadJob(req, o.files.Dir())
	o.record(job, true)

	o.logger.Job().Info("job_received",
		zap.String("job_id", job.ID),
		zap.String("url", req.URL),
		zap.String("quality", req.Quality),
		zap.String("format_id", req.FormatID))

	// 1. validate
	if err := req.Validate(); err != nil {
		return nil, o.fail(job, domain.StageValidate, err)
	}
	if err := job.Advance(domain.StateValidated); err != nil {
		return nil, o.fail(job, domain.StageValidate, err)
	}

	// 2. title only
	raw, err := o.probe(ctx, req.URL)
	if err != nil {
		return nil, o.fail(job, domain.StageMetadata, err)
	}
	job.Title = raw.Title
	job.SafeBaseName = domain.SafeBaseName(raw.Title, raw.ID)
	if err := job.Advance(domain.StateMetadataFetched); err != nil {
		return nil, o.fail(job, domain.StageMetadata, err)
	}
	o.record(job, false)

	// 3. options
	opts, err := req.ExtractOptions(o.config.Download.AudioFormat, o.config.Download.AudioQuality)
	if err != nil {
		return nil, o.fail(job, domain.StageValidate, err)
	}

	// 4. materialize
	if err := job.Advance(domain.StateExtracting); err != nil {
		return nil, o.fail(job, domain.StageDownload, err)
	}
	o.record(job, false)

	stem := job.Stem()
	started := time.Now()
	err = o.extractor.Materialize(ctx, req.URL, o.files.Dir(), stem, opts)
	metrics.ExtractorDuration.WithLabelValues("materialize").Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, o.fail(job, domain.StageDownload, err)
	}

	// 5. locate
	path, err := o.locate(job, stem)
	if err != nil {
		return nil, o.fail(job, domain.StageLocate, err)
	}
	job.ResolvedFilePath = path
	job.Filename = filepath.Base(path)
	if err := job.Advance(domain.StateFileLocated); err != nil {
		return nil, o.fail(job, domain.StageLocate, err)
	}

	// 6. complete
	size, err := o.files.Size(path)
	if err != nil {
		return nil, o.fail(job, domain.StageComplete, err)
	}
	if err := job.Complete(size); err != nil {
		return nil, o.fail(job, domain.StageComplete, err)
	}
	o.record(job, false)
	o.prune()

	metrics.JobsTotal.WithLabelValues(metrics.ResultSuccess, "").Inc()
	o.logger.Job().Info("job_completed",
		zap.String("job_id", job.ID),
		zap.String("filename", job.Filename),
		zap.Int64("size_bytes", size),
		zap.Duration("elapsed", time.Since(job.CreatedAt)))
	if o.notifier != nil {
		o.notifier.NotifyJobCompleted(job)
	}

	return &DownloadResult{
		Job:         job,
		Filename:    job.Filename,
		SizeBytes:   size,
		DownloadURL: DownloadURL(job.Filename),
	}, nil
}

func (o *Orchestrator) probe(ctx context.Context, rawURL string) (*domain.RawVideo, error) {
	started := time.Now()
	raw, err := o.extractor.Probe(ctx, rawURL)
	metrics.ExtractorDuration.WithLabelValues("probe").Observe(time.Since(started).Seconds())
	return raw, err
}

// locate prefers the exact stem and falls back to the containment search
func (o *Orchestrator) locate(job *domain.DownloadJob, stem string) (string, error) {
	path, err := o.files.LocateByStem(stem)
	if err == nil {
		return path, nil
	}
	if !domain.IsNotFound(err) {
		return "", err
	}

	quality := domain.SanitizeQuality(job.RequestedQuality)
	path, fuzzyErr := o.files.LocateProducedFile(job.SafeBaseName, quality)
	if fuzzyErr != nil {
		return "", err
	}

	o.logger.Job().Warn("file_located_by_fallback",
		zap.String("job_id", job.ID),
		zap.String("stem", stem),
		zap.String("path", path))
	return path, nil
}

func (o *Orchestrator) fail(job *domain.DownloadJob, stage domain.Stage, err error) error {
	job.Fail(stage, err)
	o.record(job, false)

	metrics.JobsTotal.WithLabelValues(metrics.ResultFailure, string(stage)).Inc()
	o.logger.LogError(logger.CategoryJob, "job_failed",
		zap.String("job_id", job.ID),
		zap.String("url", job.SourceURL),
		zap.String("stage", string(stage)),
		zap.Error(err))
	if o.notifier != nil && stage != domain.StageValidate {
		o.notifier.NotifyJobFailed(job)
	}

	return &domain.JobError{Stage: stage, Err: err}
}

// record writes the job snapshot to the ledger; ledger errors never fail a job
func (o *Orchestrator) record(job *domain.DownloadJob, create bool) {
	if o.repo == nil {
		return
	}
	var err error
	if create {
		err = o.repo.Create(job)
	} else {
		err = o.repo.Update(job)
	}
	if err != nil {
		o.logger.LogError(logger.CategoryJob, "ledger_write_failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (o *Orchestrator) prune() {
	if o.repo == nil || o.config.Ledger.MaxEntries <= 0 {
		return
	}
	if n, err := o.repo.Prune(o.config.Ledger.MaxEntries); err != nil {
		o.logger.LogError(logger.CategoryJob, "ledger_prune_failed", zap.Error(err))
	} else if n > 0 {
		o.logger.Job().Debug("ledger_pruned", zap.Int64("removed", n))
	}
}

// Jobs returns recent ledger entries
func (o *Orchestrator) Jobs(state domain.JobState, limit int) ([]*domain.DownloadJob, error) {
	if o.repo == nil {
		return []*domain.DownloadJob{}, nil
	}
	if state != "" && !domain.ValidateState(state) {
		return nil, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown state %q", state)}
	}
	return o.repo.FindRecent(state, limit)
}

// Job returns one ledger entry
func (o *Orchestrator) Job(id string) (*domain.DownloadJob, error) {
	if o.repo == nil {
		return nil, domain.ErrJobNotFound
	}
	return o.repo.FindByID(id)
}

// Stats returns ledger statistics
func (o *Orchestrator) Stats() (*domain.JobStats, error) {
	if o.repo == nil {
		return &domain.JobStats{}, nil
	}
	return o.repo.GetStats()
}
