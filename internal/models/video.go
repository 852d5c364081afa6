package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusAnalyzing AnalysisStatus = "analyzing"
	AnalysisStatusComplete  AnalysisStatus = "complete"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Video is a row owned by the upload flow. This subsystem only ever
// mutates AnalysisStatus and AnalysisError.
type Video struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	MediaURL       string         `json:"media_url" db:"media_url"`
	AnalysisStatus AnalysisStatus `json:"analysis_status" db:"analysis_status"`
	AnalysisError  string         `json:"analysis_error,omitempty" db:"analysis_error"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}
