package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-pose-service/internal/domain/entity"
	"github.com/fiapx/fiapx-pose-service/internal/domain/port"
	"github.com/fiapx/fiapx-pose-service/internal/infra/metrics"
	"github.com/fiapx/fiapx-pose-service/internal/infra/openpose"
	"github.com/fiapx/fiapx-pose-service/internal/infra/resultcodec"
	"github.com/fiapx/fiapx-pose-service/internal/pose"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type SmoothKeypointsUseCase struct {
	repo        port.JobRepository
	storage     port.KeypointStorage
	archiver    port.FrameArchiver
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
	tempDir     string
	maxRetry    int
	personIndex int
	format      resultcodec.Format
	options     pose.Options
}

type SmoothKeypointsConfig struct {
	TempDir      string
	MaxRetries   int
	WindowSize   int
	InferLegs    bool
	PersonIndex  int
	ResultFormat resultcodec.Format
}

func NewSmoothKeypointsUseCase(
	repo port.JobRepository,
	storage port.KeypointStorage,
	archiver port.FrameArchiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg SmoothKeypointsConfig,
) *SmoothKeypointsUseCase {
	opts := pose.DefaultOptions()
	if cfg.WindowSize > 0 {
		opts.WindowSize = cfg.WindowSize
	}
	opts.InferLegs = cfg.InferLegs

	format := cfg.ResultFormat
	if format == "" {
		format = resultcodec.JSON
	}

	return &SmoothKeypointsUseCase{
		repo:        repo,
		storage:     storage,
		archiver:    archiver,
		publisher:   publisher,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
		tempDir:     cfg.TempDir,
		maxRetry:    cfg.MaxRetries,
		personIndex: cfg.PersonIndex,
		format:      format,
		options:     opts,
	}
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func (uc *SmoothKeypointsUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "SmoothKeypointsUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.PoseSmoothingMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if msg.FramesPrefix == "" {
		uc.logger.Error("message without frames_prefix", zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_message: frames_prefix is required")
		return nil
	}

	personIndex := uc.personIndex
	if msg.PersonIndex != nil {
		personIndex = *msg.PersonIndex
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.frames_prefix", msg.FramesPrefix),
		attribute.Int("job.person_index", personIndex),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("frames_prefix", msg.FramesPrefix))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil && !errors.Is(err, port.ErrJobNotFound) {
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		job = entity.NewSmoothingJob(msg.UserID, msg.FramesPrefix, personIndex, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.smoothingPipeline(ctx, job, msg, personIndex, log); err != nil {
		var perm *permanentError
		if errors.As(err, &perm) {
			log.Error("smoothing failed permanently", zap.Error(err))
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error())
		}
		log.Error("smoothing failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, err.Error(), log)
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *SmoothKeypointsUseCase) smoothingPipeline(
	ctx context.Context,
	job *entity.SmoothingJob,
	msg entity.PoseSmoothingMessage,
	personIndex int,
	log *zap.Logger,
) error {
	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var records []pose.Record
	err := uc.stage(ctx, "load_frames", func(ctx context.Context) error {
		var err error
		records, err = uc.loadFrames(ctx, msg.FramesPrefix, personIndex)
		return err
	})
	if err != nil {
		return err
	}

	var res *pose.Result
	err = uc.stage(ctx, "smooth", func(ctx context.Context) error {
		opts := uc.options
		opts.Observer = func(e pose.Event) {
			metrics.ObserveEvent(e)
			if e.Kind == pose.EventGapFilled || e.Kind == pose.EventDegenerateGeometry {
				log.Debug("smoothing event",
					zap.Stringer("kind", e.Kind),
					zap.Int("frame", e.Frame),
					zap.Stringer("joint", e.Joint),
					zap.Int("span", e.Span),
				)
			}
		}
		var err error
		res, err = pose.Smooth(records, opts)
		if err != nil {
			return permanent(fmt.Errorf("smooth: %w", err))
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.FramesSmoothedTotal.Add(float64(len(res.Frames)))

	clip := path.Base(msg.FramesPrefix)
	resultKey := fmt.Sprintf("%s/smoothed_%s.%s", msg.UserID, job.ID.String(), uc.format.Extension())
	err = uc.stage(ctx, "upload_result", func(ctx context.Context) error {
		var buf bytes.Buffer
		if err := resultcodec.Encode(&buf, res, uc.format); err != nil {
			return permanent(err)
		}
		return uc.storage.UploadResult(ctx, resultKey, &buf, int64(buf.Len()), uc.format.ContentType())
	})
	if err != nil {
		return err
	}

	archiveKey := fmt.Sprintf("%s/frames_%s.zip", msg.UserID, job.ID.String())
	err = uc.stage(ctx, "upload_archive", func(ctx context.Context) error {
		zipPath := filepath.Join(workDir, "frames.zip")
		if err := uc.archiver.CreateZip(ctx, clip, res, zipPath); err != nil {
			return fmt.Errorf("create zip: %w", err)
		}
		zipFile, err := os.Open(zipPath)
		if err != nil {
			return fmt.Errorf("open zip: %w", err)
		}
		defer zipFile.Close()
		zipStat, err := zipFile.Stat()
		if err != nil {
			return fmt.Errorf("stat zip: %w", err)
		}
		return uc.storage.UploadResult(ctx, archiveKey, zipFile, zipStat.Size(), "application/zip")
	})
	if err != nil {
		return err
	}

	job.MarkCompleted(entity.SmoothingOutcome{
		ResultKey:    resultKey,
		ArchiveKey:   archiveKey,
		FrameCount:   len(res.Frames),
		StartFrame:   res.StartFrame,
		GapsFilled:   res.Stats.GapsFilled,
		LegsInferred: res.Stats.LegsInferred,
	})
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", len(res.Frames)),
		zap.Int("start_frame", res.StartFrame),
		zap.Bool("smoothed", res.Smoothed),
		zap.Int("gaps_filled", res.Stats.GapsFilled),
		zap.Int("legs_inferred", res.Stats.LegsInferred),
		zap.Int("facial_corrections", res.Stats.FacialCorrections),
		zap.String("result_key", resultKey),
	)

	return nil
}

// loadFrames fetches every keypoint object of a clip. Objects that vanished
// or do not parse are permanent failures; storage outages are retried.
func (uc *SmoothKeypointsUseCase) loadFrames(ctx context.Context, prefix string, personIndex int) ([]pose.Record, error) {
	keys, err := uc.storage.ListFrames(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	records := make([]pose.Record, 0, len(keys))
	for _, key := range keys {
		data, err := uc.storage.ReadFrame(ctx, key)
		if err != nil {
			if errors.Is(err, port.ErrFrameNotFound) {
				return nil, permanent(&pose.MissingInputError{Key: key, Reason: "object not found", Err: err})
			}
			return nil, fmt.Errorf("read frame: %w", err)
		}
		rec, err := openpose.ParseFrame(key, bytes.NewReader(data), personIndex)
		if err != nil {
			return nil, permanent(err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (uc *SmoothKeypointsUseCase) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	metrics.JobProcessingDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return nil
}

func (uc *SmoothKeypointsUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.SmoothingJob,
	msg entity.PoseSmoothingMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *SmoothKeypointsUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.SmoothingJob,
	msg entity.PoseSmoothingMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.FramesPrefix, errMsg)
	}

	return nil
}

func (uc *SmoothKeypointsUseCase) publishStatus(ctx context.Context, job *entity.SmoothingJob, log *zap.Logger) {
	statusMsg := entity.PoseStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		FramesPrefix: job.FramesPrefix,
		ResultKey:    job.ResultKey,
		ArchiveKey:   job.ArchiveKey,
		FrameCount:   job.FrameCount,
		StartFrame:   job.StartFrame,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
