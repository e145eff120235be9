package infrastructure

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/tubegrab-go/internal/domain"
)

func setupTestRepo(t *testing.T) *SQLiteJobRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	repo, err := NewSQLiteJobRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newLedgerJob(t *testing.T, created time.Time) *domain.DownloadJob {
	t.Helper()
	job := domain.NewDownloadJob(domain.DownloadRequest{
		URL:     "https://youtu.be/abc",
		Quality: "audio",
	}, "/tmp/downloads")
	job.CreatedAt = created
	return job
}

func completeJob(t *testing.T, job *domain.DownloadJob, filename string) {
	t.Helper()
	for _, s := range []domain.JobState{domain.StateValidated, domain.StateMetadataFetched, domain.StateExtracting, domain.StateFileLocated} {
		require.NoError(t, job.Advance(s))
	}
	job.Filename = filename
	require.NoError(t, job.Complete(1024))
}

func TestSQLiteJobRepository_CreateAndFind(t *testing.T) {
	repo := setupTestRepo(t)

	job := newLedgerJob(t, time.Now())
	require.NoError(t, repo.Create(job))

	found, err := repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Token, found.Token)
	assert.Equal(t, domain.StateReceived, found.State)

	_, err = repo.FindByID("missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestSQLiteJobRepository_UpdateAndFindByFilename(t *testing.T) {
	repo := setupTestRepo(t)

	job := newLedgerJob(t, time.Now())
	require.NoError(t, repo.Create(job))

	completeJob(t, job, "Song_audio-1a2b3c4d.mp3")
	require.NoError(t, repo.Update(job))

	found, err := repo.FindByFilename("Song_audio-1a2b3c4d.mp3")
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
	assert.Equal(t, domain.StateCompleted, found.State)
	require.NotNil(t, found.SizeBytes)
	assert.Equal(t, int64(1024), *found.SizeBytes)

	_, err = repo.FindByFilename("other.mp3")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestSQLiteJobRepository_FindRecent(t *testing.T) {
	repo := setupTestRepo(t)
	base := time.Now().Add(-time.Hour)

	var ids []string
	for i := 0; i < 3; i++ {
		job := newLedgerJob(t, base.Add(time.Duration(i)*time.Minute))
		if i == 1 {
			job.Fail(domain.StageMetadata, fmt.Errorf("boom"))
		}
		require.NoError(t, repo.Create(job))
		ids = append(ids, job.ID)
	}

	all, err := repo.FindRecent("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := repo.FindRecent("", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	failed, err := repo.FindRecent(domain.StateFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, ids[1], failed[0].ID)
}

func TestSQLiteJobRepository_MarkReapedAndStats(t *testing.T) {
	repo := setupTestRepo(t)

	done := newLedgerJob(t, time.Now())
	completeJob(t, done, "a.mp3")
	require.NoError(t, repo.Create(done))

	failed := newLedgerJob(t, time.Now())
	failed.Fail(domain.StageDownload, fmt.Errorf("exit status 1"))
	require.NoError(t, repo.Create(failed))

	active := newLedgerJob(t, time.Now())
	require.NoError(t, repo.Create(active))

	require.NoError(t, repo.MarkReaped("a.mp3"))
	require.NoError(t, repo.MarkReaped("unknown.mp3"))

	found, err := repo.FindByID(done.ID)
	require.NoError(t, err)
	assert.True(t, found.Reaped)
	assert.NotNil(t, found.ReapedAt)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Active)
	assert.Equal(t, int64(1), stats.Reaped)
}

func TestSQLiteJobRepository_Prune(t *testing.T) {
	repo := setupTestRepo(t)
	base := time.Now().Add(-time.Hour)

	var ids []string
	for i := 0; i < 4; i++ {
		job := newLedgerJob(t, base.Add(time.Duration(i)*time.Minute))
		job.Fail(domain.StageMetadata, fmt.Errorf("boom"))
		require.NoError(t, repo.Create(job))
		ids = append(ids, job.ID)
	}
	// oldest of all but still running, never pruned
	running := newLedgerJob(t, base.Add(-time.Minute))
	require.NoError(t, repo.Create(running))

	deleted, err := repo.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.FindRecent("", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, ids[3], remaining[0].ID)
	assert.Equal(t, ids[2], remaining[1].ID)
	assert.Equal(t, running.ID, remaining[2].ID)
}
