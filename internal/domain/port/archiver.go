package port

import (
	"context"

	"github.com/fiapx/fiapx-pose-service/internal/pose"
)

type FrameArchiver interface {
	CreateZip(ctx context.Context, prefix string, res *pose.Result, outputPath string) error
}
