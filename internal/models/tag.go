package models

import (
	"time"

	"github.com/google/uuid"
)

// FaceTag is one time-coded appearance of a child in a video. The full
// set for a video is replaced as a unit on every scan of that video.
type FaceTag struct {
	ID           uuid.UUID `json:"id" db:"id"`
	VideoID      uuid.UUID `json:"video_id" db:"video_id"`
	ChildID      uuid.UUID `json:"child_id" db:"child_id"`
	Label        string    `json:"label" db:"label"`
	StartTime    float64   `json:"start_time" db:"start_time"`
	EndTime      float64   `json:"end_time" db:"end_time"`
	Confidence   float64   `json:"confidence" db:"confidence"`
	ThumbnailKey string    `json:"thumbnail_key" db:"thumbnail_key"`
	IsTentative  bool      `json:"is_tentative" db:"is_tentative"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AnalyzeJob is the message published to NATS for on-demand single-video
// scans triggered through the API.
type AnalyzeJob struct {
	VideoID     uuid.UUID `json:"video_id"`
	RequestedAt time.Time `json:"requested_at"`
}
