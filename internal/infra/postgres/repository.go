package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-pose-service/internal/domain/entity"
	"github.com/fiapx/fiapx-pose-service/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.SmoothingJob) error {
	query := `
		INSERT INTO smoothing_jobs (
			id, user_id, frames_prefix, person_index, result_key, archive_key,
			status, frame_count, start_frame, gaps_filled, legs_inferred,
			attempt, max_attempts, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.FramesPrefix, job.PersonIndex, job.ResultKey, job.ArchiveKey,
		string(job.Status), job.FrameCount, job.StartFrame, job.GapsFilled, job.LegsInferred,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.SmoothingJob) error {
	query := `
		UPDATE smoothing_jobs SET
			status=$2, result_key=$3, archive_key=$4, frame_count=$5, start_frame=$6,
			gaps_filled=$7, legs_inferred=$8, attempt=$9, error_message=$10,
			updated_at=$11, completed_at=$12
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ResultKey, job.ArchiveKey, job.FrameCount, job.StartFrame,
		job.GapsFilled, job.LegsInferred, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SmoothingJob, error) {
	query := `
		SELECT id, user_id, frames_prefix, person_index, result_key, archive_key,
			status, frame_count, start_frame, gaps_filled, legs_inferred,
			attempt, max_attempts, error_message, created_at, updated_at, completed_at
		FROM smoothing_jobs WHERE id=$1`

	job := &entity.SmoothingJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.FramesPrefix, &job.PersonIndex, &job.ResultKey, &job.ArchiveKey,
		&status, &job.FrameCount, &job.StartFrame, &job.GapsFilled, &job.LegsInferred,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
