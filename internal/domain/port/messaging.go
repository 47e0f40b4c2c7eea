package port

import "context"

// StatusPublisher announces job state changes of smoothing jobs.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// DLQPublisher parks smoothing requests that can never succeed.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
