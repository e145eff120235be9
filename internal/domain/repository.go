package domain

// JobRepository defines the interface for the job ledger
type JobRepository interface {
	// Create stores a new job snapshot
	Create(job *DownloadJob) error

	// Update saves the current job snapshot
	Update(job *DownloadJob) error

	// FindByID finds a job by ID
	FindByID(id string) (*DownloadJob, error)

	// FindByFilename finds the job that produced filename
	FindByFilename(filename string) (*DownloadJob, error)

	// FindRecent returns the newest jobs, optionally filtered by state
	FindRecent(state JobState, limit int) ([]*DownloadJob, error)

	// MarkReaped flags the job that produced filename as reclaimed
	MarkReaped(filename string) error

	// Prune keeps only the newest keep entries
	Prune(keep int) (int64, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)
}

// JobStats represents ledger statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Reaped    int64 `json:"reaped"`
}
