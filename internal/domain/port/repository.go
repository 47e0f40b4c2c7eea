package port

import (
	"context"
	"errors"

	"github.com/fiapx/fiapx-pose-service/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned by FindByID for an unknown job id.
var ErrJobNotFound = errors.New("smoothing job not found")

type JobRepository interface {
	Create(ctx context.Context, job *entity.SmoothingJob) error
	Update(ctx context.Context, job *entity.SmoothingJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SmoothingJob, error)
}
