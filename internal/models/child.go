package models

import (
	"time"

	"github.com/google/uuid"
)

// Child is owned by the enrollment flow and read-only here. A child may
// carry a single legacy face id from the old enrollment flow, a set of
// face ids from the current one, or both. A child with neither cannot be
// matched and is excluded from the registry snapshot.
type Child struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LegacyFaceID string    `json:"legacy_face_id,omitempty" db:"legacy_face_id"`
	FaceIDs      []string  `json:"face_ids" db:"face_ids"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasFaceIDs reports whether the child can be a match target at all.
func (c Child) HasFaceIDs() bool {
	return c.LegacyFaceID != "" || len(c.FaceIDs) > 0
}
