package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *DownloadJob {
	return NewDownloadJob(DownloadRequest{
		URL:     "https://www.youtube.com/watch?v=abc",
		Quality: "720p",
	}, "/tmp/downloads")
}

func TestNewDownloadJob(t *testing.T) {
	job := newTestJob()

	assert.NotEmpty(t, job.ID)
	assert.Len(t, job.Token, 8)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", job.SourceURL)
	assert.Equal(t, "720p", job.RequestedQuality)
	assert.Equal(t, "/tmp/downloads", job.OutputDirectory)
	assert.Equal(t, StateReceived, job.State)
	assert.Nil(t, job.SizeBytes)
}

func TestNewJobToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := NewJobToken()
		assert.False(t, seen[token], "token %s repeated", token)
		seen[token] = true
	}
}

func TestDownloadJob_AdvanceInOrder(t *testing.T) {
	job := newTestJob()

	for _, state := range []JobState{StateValidated, StateMetadataFetched, StateExtracting, StateFileLocated} {
		require.NoError(t, job.Advance(state))
		assert.Equal(t, state, job.State)
	}

	require.NoError(t, job.Complete(42))
	assert.Equal(t, StateCompleted, job.State)
	require.NotNil(t, job.SizeBytes)
	assert.Equal(t, int64(42), *job.SizeBytes)
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, job.IsTerminal())
}

func TestDownloadJob_AdvanceRejectsSkips(t *testing.T) {
	job := newTestJob()

	err := job.Advance(StateExtracting)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal transition")
	assert.Equal(t, StateReceived, job.State)
}

func TestDownloadJob_AdvanceFromTerminal(t *testing.T) {
	job := newTestJob()
	job.Fail(StageMetadata, errors.New("boom"))

	err := job.Advance(StateValidated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestDownloadJob_Fail(t *testing.T) {
	job := newTestJob()
	require.NoError(t, job.Advance(StateValidated))

	job.Fail(StageMetadata, errors.New("network down"))

	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, StageMetadata, job.FailedStage)
	assert.Equal(t, "network down", job.ErrorMessage)
	assert.True(t, job.IsTerminal())
}

func TestDownloadJob_Stem(t *testing.T) {
	job := newTestJob()
	job.SafeBaseName = "My Video"
	job.Token = "deadbeef"

	assert.Equal(t, "My Video_720p-deadbeef", job.Stem())
}

func TestValidateState(t *testing.T) {
	assert.True(t, ValidateState(StateCompleted))
	assert.True(t, ValidateState(StateFailed))
	assert.False(t, ValidateState("bogus"))
}

func TestJobError_Unwrap(t *testing.T) {
	cause := &ExtractionError{Op: "probe", Message: "exit status 1"}
	err := &JobError{Stage: StageMetadata, Err: cause}

	assert.True(t, IsExtraction(err))
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "metadata")
}
