package infrastructure

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/tubegrab-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var terminalStates = []domain.JobState{domain.StateCompleted, domain.StateFailed}

// SQLiteJobRepository implements domain.JobRepository using SQLite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository opens the ledger at dsn and migrates the schema
func NewSQLiteJobRepository(dsn string) (*SQLiteJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A shared-cache memory database lives as long as one connection does,
	// and concurrent writers on it fail with "table is locked".
	if strings.Contains(dsn, "mode=memory") || dsn == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := db.AutoMigrate(&domain.DownloadJob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create creates a new job
func (r *SQLiteJobRepository) Create(job *domain.DownloadJob) error {
	return r.db.Create(job).Error
}

// Update updates an existing job
func (r *SQLiteJobRepository) Update(job *domain.DownloadJob) error {
	return r.db.Save(job).Error
}

// FindByID finds a job by ID
func (r *SQLiteJobRepository) FindByID(id string) (*domain.DownloadJob, error) {
	var job domain.DownloadJob
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByFilename finds the newest job whose output is filename
func (r *SQLiteJobRepository) FindByFilename(filename string) (*domain.DownloadJob, error) {
	var job domain.DownloadJob
	err := r.db.Where("filename = ?", filename).
		Order("created_at DESC, rowid DESC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindRecent returns up to limit jobs, newest first; an empty state matches all
func (r *SQLiteJobRepository) FindRecent(state domain.JobState, limit int) ([]*domain.DownloadJob, error) {
	var jobs []*domain.DownloadJob
	query := r.db.Order("created_at DESC, rowid DESC")

	if state != "" {
		query = query.Where("state = ?", state)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&jobs).Error
	return jobs, err
}

// MarkReaped flags every job that produced filename as reclaimed
func (r *SQLiteJobRepository) MarkReaped(filename string) error {
	now := time.Now()
	return r.db.Model(&domain.DownloadJob{}).
		Where("filename = ? AND reaped = ?", filename, false).
		Updates(map[string]interface{}{"reaped": true, "reaped_at": now}).Error
}

// Prune deletes terminal jobs beyond the newest keep entries
func (r *SQLiteJobRepository) Prune(keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	newest := r.db.Model(&domain.DownloadJob{}).
		Select("id").
		Order("created_at DESC, rowid DESC").
		Limit(keep)

	result := r.db.Where("state IN ? AND id NOT IN (?)", terminalStates, newest).
		Delete(&domain.DownloadJob{})
	return result.RowsAffected, result.Error
}

// GetStats returns job statistics
func (r *SQLiteJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	// Get total count
	if err := r.db.Model(&domain.DownloadJob{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Get counts by state
	stateCounts := []struct {
		State domain.JobState
		Count int64
	}{}

	if err := r.db.Model(&domain.DownloadJob{}).
		Select("state, count(*) as count").
		Group("state").
		Scan(&stateCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range stateCounts {
		switch sc.State {
		case domain.StateCompleted:
			stats.Completed = sc.Count
		case domain.StateFailed:
			stats.Failed = sc.Count
		default:
			stats.Active += sc.Count
		}
	}

	if err := r.db.Model(&domain.DownloadJob{}).
		Where("reaped = ?", true).
		Count(&stats.Reaped).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
