package entity

import "github.com/google/uuid"

// PoseSmoothingMessage is the inbound message from the pose.smoothing queue.
// FramesPrefix selects the OpenPose JSON objects of one clip in the keypoint
// bucket. PersonIndex falls back to the service default when omitted.
type PoseSmoothingMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	FramesPrefix string    `json:"frames_prefix"`
	PersonIndex  *int      `json:"person_index,omitempty"`
	UserEmail    string    `json:"user_email"`
}

// PoseStatusMessage is the outbound message published to the pose.status queue.
type PoseStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	FramesPrefix string    `json:"frames_prefix"`
	ResultKey    string    `json:"result_key,omitempty"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	StartFrame   int       `json:"start_frame"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
