package port

import (
	"context"
	"errors"
	"io"
)

// ErrFrameNotFound reports a listed keypoint object that no longer exists.
var ErrFrameNotFound = errors.New("keypoint frame not found")

type KeypointStorage interface {
	// ListFrames returns the keypoint object keys under prefix, sorted.
	ListFrames(ctx context.Context, prefix string) ([]string, error)
	ReadFrame(ctx context.Context, objectKey string) ([]byte, error)
	UploadResult(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}
