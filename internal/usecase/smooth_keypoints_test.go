package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fiapx/fiapx-pose-service/internal/domain/entity"
	"github.com/fiapx/fiapx-pose-service/internal/domain/port"
	"github.com/fiapx/fiapx-pose-service/internal/infra/archive"
	"github.com/fiapx/fiapx-pose-service/internal/infra/openpose"
	"github.com/fiapx/fiapx-pose-service/internal/infra/resultcodec"
	"github.com/fiapx/fiapx-pose-service/internal/pose"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]entity.SmoothingJob
	findErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{jobs: map[uuid.UUID]entity.SmoothingJob{}} }

func (r *fakeRepo) Create(_ context.Context, job *entity.SmoothingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, job *entity.SmoothingJob) error {
	return r.Create(ctx, job)
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.SmoothingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	job, ok := r.jobs[id]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	return &job, nil
}

type fakeStorage struct {
	frames   map[string][]byte
	missing  map[string]bool
	listErr  error
	uploads  map[string][]byte
	types    map[string]string
	readErrs map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		frames:   map[string][]byte{},
		missing:  map[string]bool{},
		uploads:  map[string][]byte{},
		types:    map[string]string{},
		readErrs: map[string]error{},
	}
}

func (s *fakeStorage) ListFrames(_ context.Context, prefix string) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var keys []string
	for k := range s.frames {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *fakeStorage) ReadFrame(_ context.Context, key string) ([]byte, error) {
	if s.missing[key] {
		return nil, fmt.Errorf("read frame %s: %w", key, port.ErrFrameNotFound)
	}
	if err := s.readErrs[key]; err != nil {
		return nil, err
	}
	return s.frames[key], nil
}

func (s *fakeStorage) UploadResult(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	s.uploads[key] = data
	s.types[key] = contentType
	return nil
}

type recorder struct {
	status   [][]byte
	dlq      [][]byte
	reasons  []string
	notified []string
}

func (r *recorder) PublishStatus(_ context.Context, msg []byte) error {
	r.status = append(r.status, msg)
	return nil
}

func (r *recorder) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	r.dlq = append(r.dlq, msg)
	r.reasons = append(r.reasons, reason)
	return nil
}

func (r *recorder) NotifyFailure(_ context.Context, userEmail, jobID, framesPrefix, errorMsg string) error {
	r.notified = append(r.notified, userEmail)
	return nil
}

func (r *recorder) lastStatus(t *testing.T) entity.PoseStatusMessage {
	t.Helper()
	require.NotEmpty(t, r.status)
	var msg entity.PoseStatusMessage
	require.NoError(t, json.Unmarshal(r.status[len(r.status)-1], &msg))
	return msg
}

func frameJSON(t *testing.T, frame int) []byte {
	t.Helper()
	var xy pose.Coordinates
	for j := pose.Joint(0); j < pose.JointCount; j++ {
		xy.Set(j, float64(10*int(j)+frame), float64(20*int(j)))
	}
	var buf bytes.Buffer
	require.NoError(t, openpose.EncodeFrame(&buf, xy))
	return buf.Bytes()
}

func seedClip(t *testing.T, s *fakeStorage, prefix string, n int) {
	for i := 0; i < n; i++ {
		s.frames[fmt.Sprintf("%s/clip_%012d_keypoints.json", prefix, i)] = frameJSON(t, i)
	}
}

type fixture struct {
	uc      *SmoothKeypointsUseCase
	repo    *fakeRepo
	storage *fakeStorage
	rec     *recorder
}

func newFixture(t *testing.T, format resultcodec.Format) *fixture {
	f := &fixture{repo: newFakeRepo(), storage: newFakeStorage(), rec: &recorder{}}
	f.uc = NewSmoothKeypointsUseCase(
		f.repo, f.storage, archive.NewZipCreator(),
		f.rec, f.rec, f.rec,
		zap.NewNop(),
		SmoothKeypointsConfig{
			TempDir:      t.TempDir(),
			MaxRetries:   3,
			WindowSize:   pose.DefaultWindowSize,
			InferLegs:    true,
			ResultFormat: format,
		},
	)
	return f
}

func message(t *testing.T, prefix string) (uuid.UUID, []byte) {
	id := uuid.New()
	body, err := json.Marshal(entity.PoseSmoothingMessage{
		JobID:        id,
		UserID:       "user-1",
		FramesPrefix: prefix,
		UserEmail:    "dancer@example.com",
	})
	require.NoError(t, err)
	return id, body
}

func TestExecuteSmoothsClip(t *testing.T) {
	for _, format := range []resultcodec.Format{resultcodec.JSON, resultcodec.MsgPack} {
		t.Run(string(format), func(t *testing.T) {
			f := newFixture(t, format)
			seedClip(t, f.storage, "user-1/clip", 12)
			id, body := message(t, "user-1/clip")

			require.NoError(t, f.uc.Execute(context.Background(), body))

			status := f.rec.lastStatus(t)
			assert.Equal(t, entity.JobStatusCompleted, status.Status)
			assert.Equal(t, 12, status.FrameCount)
			assert.Equal(t, id, status.JobID)
			assert.Empty(t, f.rec.dlq)

			resultKey := fmt.Sprintf("user-1/smoothed_%s.%s", id, format.Extension())
			require.Contains(t, f.storage.uploads, resultKey)
			assert.Equal(t, format.ContentType(), f.storage.types[resultKey])

			res, err := resultcodec.Decode(bytes.NewReader(f.storage.uploads[resultKey]), format)
			require.NoError(t, err)
			assert.True(t, res.Smoothed)
			assert.Len(t, res.Frames, 12)
			assert.Equal(t, 0, res.StartFrame)

			archiveKey := fmt.Sprintf("user-1/frames_%s.zip", id)
			require.Contains(t, f.storage.uploads, archiveKey)
			zr, err := zip.NewReader(bytes.NewReader(f.storage.uploads[archiveKey]), int64(len(f.storage.uploads[archiveKey])))
			require.NoError(t, err)
			assert.Len(t, zr.File, 12)
			assert.Equal(t, "clip_000000000000_keypoints.json", zr.File[0].Name)

			job, err := f.repo.FindByID(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, entity.JobStatusCompleted, job.Status)
			assert.Equal(t, resultKey, job.ResultKey)
			assert.Equal(t, 1, job.Attempt)
		})
	}
}

func TestExecuteMalformedMessageGoesToDLQ(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)

	require.NoError(t, f.uc.Execute(context.Background(), []byte(`{invalid json`)))
	require.Len(t, f.rec.dlq, 1)
	assert.Equal(t, `{invalid json`, string(f.rec.dlq[0]))
	assert.True(t, strings.HasPrefix(f.rec.reasons[0], "unmarshal_error"))

	require.NoError(t, f.uc.Execute(context.Background(), []byte(`{"job_id":"`+uuid.NewString()+`"}`)))
	assert.Len(t, f.rec.dlq, 2)
	assert.Empty(t, f.repo.jobs)
}

func TestExecuteInsufficientFramesIsPermanent(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	seedClip(t, f.storage, "user-1/short", 8)
	id, body := message(t, "user-1/short")

	require.NoError(t, f.uc.Execute(context.Background(), body))

	require.Len(t, f.rec.dlq, 1)
	assert.Contains(t, f.rec.reasons[0], "insufficient frames")
	assert.Equal(t, []string{"dancer@example.com"}, f.rec.notified)
	assert.Empty(t, f.storage.uploads)

	job, err := f.repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
}

func TestExecuteSingleFrameIsNotSmoothed(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	seedClip(t, f.storage, "user-1/still", 1)
	id, body := message(t, "user-1/still")

	require.NoError(t, f.uc.Execute(context.Background(), body))

	res, err := resultcodec.Decode(bytes.NewReader(f.storage.uploads[fmt.Sprintf("user-1/smoothed_%s.json", id)]), resultcodec.JSON)
	require.NoError(t, err)
	assert.False(t, res.Smoothed)
	require.Len(t, res.Frames, 1)
	assert.Equal(t, 10.0, res.Frames[0].X(pose.Neck))
}

func TestExecuteMissingObjectIsPermanent(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	seedClip(t, f.storage, "user-1/clip", 10)
	f.storage.missing["user-1/clip/clip_000000000004_keypoints.json"] = true
	_, body := message(t, "user-1/clip")

	require.NoError(t, f.uc.Execute(context.Background(), body))

	require.Len(t, f.rec.dlq, 1)
	assert.Contains(t, f.rec.reasons[0], "missing/invalid input")
	assert.Empty(t, f.storage.uploads)
}

func TestExecuteStorageOutageIsRetried(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	f.storage.listErr = errors.New("connection refused")
	id, body := message(t, "user-1/clip")

	err := f.uc.Execute(context.Background(), body)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempt 1/3")
	assert.Empty(t, f.rec.dlq)
	assert.Equal(t, entity.JobStatusFailed, f.rec.lastStatus(t).Status)

	job, findErr := f.repo.FindByID(context.Background(), id)
	require.NoError(t, findErr)
	assert.Equal(t, 1, job.Attempt)
}

func TestExecuteRepositoryOutageIsRetried(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	seedClip(t, f.storage, "user-1/clip", 9)
	f.repo.findErr = errors.New("too many connections")
	_, body := message(t, "user-1/clip")

	err := f.uc.Execute(context.Background(), body)

	require.Error(t, err)
	assert.Empty(t, f.repo.jobs)
	assert.Empty(t, f.rec.dlq)
	assert.Empty(t, f.storage.uploads)
}

func TestExecuteExhaustedRetriesGoToDLQ(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	f.storage.listErr = errors.New("connection refused")
	_, body := message(t, "user-1/clip")

	for i := 0; i < 2; i++ {
		require.Error(t, f.uc.Execute(context.Background(), body))
	}
	require.NoError(t, f.uc.Execute(context.Background(), body))
	require.Len(t, f.rec.dlq, 1)

	require.NoError(t, f.uc.Execute(context.Background(), body))
	assert.Len(t, f.rec.dlq, 2)
	assert.Equal(t, "max retries exceeded", f.rec.reasons[1])
}

func TestExecuteHonoursPersonIndex(t *testing.T) {
	f := newFixture(t, resultcodec.JSON)
	seedClip(t, f.storage, "user-1/clip", 9)

	person := 1
	body, err := json.Marshal(entity.PoseSmoothingMessage{
		JobID:        uuid.New(),
		UserID:       "user-1",
		FramesPrefix: "user-1/clip",
		PersonIndex:  &person,
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.Execute(context.Background(), body))
	require.Len(t, f.rec.dlq, 1)
	assert.Contains(t, f.rec.reasons[0], "person 1 not found")
	assert.Empty(t, f.rec.notified)
}
