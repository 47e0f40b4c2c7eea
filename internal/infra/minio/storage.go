package minio

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fiapx/fiapx-pose-service/internal/domain/port"
	"github.com/fiapx/fiapx-pose-service/internal/infra/openpose"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client         *miniogo.Client
	keypointBucket string
	resultBucket   string
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	KeypointBucket string
	ResultBucket   string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:         client,
		keypointBucket: cfg.KeypointBucket,
		resultBucket:   cfg.ResultBucket,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.keypointBucket, s.resultBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// ListFrames lists the OpenPose keypoint objects directly under prefix.
func (s *Storage) ListFrames(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.keypointBucket, miniogo.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list frames %s: %w", prefix, obj.Err)
		}
		if openpose.IsFrameFile(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ReadFrame downloads one keypoint object. A missing object maps to
// port.ErrFrameNotFound; anything else is left to the caller to retry.
func (s *Storage) ReadFrame(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.keypointBucket, objectKey, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get frame %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if miniogo.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("read frame %s: %w", objectKey, port.ErrFrameNotFound)
		}
		return nil, fmt.Errorf("read frame %s: %w", objectKey, err)
	}
	return data, nil
}

func (s *Storage) UploadResult(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.resultBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload result %s: %w", objectKey, err)
	}
	return nil
}
