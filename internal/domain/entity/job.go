package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// SmoothingJob tracks one keypoint sequence through the smoothing pipeline.
type SmoothingJob struct {
	ID           uuid.UUID
	UserID       string
	FramesPrefix string
	PersonIndex  int
	ResultKey    string
	ArchiveKey   string
	Status       JobStatus
	FrameCount   int
	StartFrame   int
	GapsFilled   int
	LegsInferred int
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewSmoothingJob(userID, framesPrefix string, personIndex, maxAttempts int) *SmoothingJob {
	now := time.Now().UTC()
	return &SmoothingJob{
		ID:           uuid.New(),
		UserID:       userID,
		FramesPrefix: framesPrefix,
		PersonIndex:  personIndex,
		Status:       JobStatusPending,
		Attempt:      0,
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (j *SmoothingJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

// SmoothingOutcome is what a completed run records on the job.
type SmoothingOutcome struct {
	ResultKey    string
	ArchiveKey   string
	FrameCount   int
	StartFrame   int
	GapsFilled   int
	LegsInferred int
}

func (j *SmoothingJob) MarkCompleted(out SmoothingOutcome) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ResultKey = out.ResultKey
	j.ArchiveKey = out.ArchiveKey
	j.FrameCount = out.FrameCount
	j.StartFrame = out.StartFrame
	j.GapsFilled = out.GapsFilled
	j.LegsInferred = out.LegsInferred
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *SmoothingJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *SmoothingJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
