package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothingJobLifecycle(t *testing.T) {
	job := NewSmoothingJob("user-1", "user-1/clip", 0, 2)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.MarkFailed("storage down")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.True(t, job.CanRetry())

	job.MarkProcessing()
	assert.False(t, job.CanRetry())

	job.MarkCompleted(SmoothingOutcome{ResultKey: "r.json", FrameCount: 120, StartFrame: 3, GapsFilled: 4})
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, 120, job.FrameCount)
	require.NotNil(t, job.CompletedAt)
}
