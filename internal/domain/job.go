package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobState represents the current state of a download job
type JobState string

const (
	StateReceived        JobState = "received"
	StateValidated       JobState = "validated"
	StateMetadataFetched JobState = "metadata_fetched"
	StateExtracting      JobState = "extracting"
	StateFileLocated     JobState = "file_located"
	StateCompleted       JobState = "completed"
	StateFailed          JobState = "failed"
)

// Stage names the pipeline step a failure happened in
type Stage string

const (
	StageValidate Stage = "validate"
	StageMetadata Stage = "metadata"
	StageDownload Stage = "download"
	StageLocate   Stage = "locate"
	StageComplete Stage = "complete"
)

// successor of each non-terminal state; a job only ever moves one step forward
var nextState = map[JobState]JobState{
	StateReceived:        StateValidated,
	StateValidated:       StateMetadataFetched,
	StateMetadataFetched: StateExtracting,
	StateExtracting:      StateFileLocated,
	StateFileLocated:     StateCompleted,
}

// DownloadJob is the per-request unit of work that turns a DownloadRequest into one file on disk
type DownloadJob struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	Token            string     `json:"token" gorm:"index"`
	SourceURL        string     `json:"source_url" gorm:"not null"`
	RequestedQuality string     `json:"requested_quality"`
	FormatID         string     `json:"format_id,omitempty"`
	Title            string     `json:"title,omitempty"`
	SafeBaseName     string     `json:"safe_base_name,omitempty"`
	OutputDirectory  string     `json:"output_directory"`
	Filename         string     `json:"filename,omitempty" gorm:"index"`
	ResolvedFilePath string     `json:"resolved_file_path,omitempty"`
	SizeBytes        *int64     `json:"size_bytes,omitempty"`
	State            JobState   `json:"state" gorm:"not null;index"`
	FailedStage      Stage      `json:"failed_stage,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	Reaped           bool       `json:"reaped"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ReapedAt         *time.Time `json:"reaped_at,omitempty"`
}

// NewDownloadJob creates a job for the given request writing into outputDir
func NewDownloadJob(req DownloadRequest, outputDir string) *DownloadJob {
	now := time.Now()
	return &DownloadJob{
		ID:               uuid.New().String(),
		Token:            NewJobToken(),
		SourceURL:        req.URL,
		RequestedQuality: req.Quality,
		FormatID:         req.FormatID,
		OutputDirectory:  outputDir,
		State:            StateReceived,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewJobToken returns a short random token used to keep output names of concurrent jobs apart
func NewJobToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Advance moves the job to next, which must be the direct successor of the current state
func (j *DownloadJob) Advance(next JobState) error {
	want, ok := nextState[j.State]
	if !ok {
		return fmt.Errorf("job %s is in terminal state %s", j.ID, j.State)
	}
	if next != want {
		return fmt.Errorf("illegal transition %s -> %s", j.State, next)
	}
	j.State = next
	j.UpdatedAt = time.Now()
	return nil
}

// Fail marks the job as failed at the given stage
func (j *DownloadJob) Fail(stage Stage, err error) {
	j.State = StateFailed
	j.FailedStage = stage
	if err != nil {
		j.ErrorMessage = err.Error()
	}
	j.UpdatedAt = time.Now()
}

// Complete records the located file and its size and moves the job to Completed
func (j *DownloadJob) Complete(size int64) error {
	if err := j.Advance(StateCompleted); err != nil {
		return err
	}
	j.SizeBytes = &size
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

// Stem returns the output name without extension handed to the extractor
func (j *DownloadJob) Stem() string {
	return JobStem(ComposeBaseName(j.SafeBaseName, SanitizeQuality(j.RequestedQuality)), j.Token)
}

// IsTerminal checks if the job is in a terminal state
func (j *DownloadJob) IsTerminal() bool {
	return j.State == StateCompleted || j.State == StateFailed
}

// ValidateState checks if a state name is known
func ValidateState(state JobState) bool {
	switch state {
	case StateReceived, StateValidated, StateMetadataFetched, StateExtracting,
		StateFileLocated, StateCompleted, StateFailed:
		return true
	}
	return false
}
