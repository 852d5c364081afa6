package vision

import (
	"github.com/your-org/facetag/internal/models"
)

// Registry is an immutable snapshot of the enrolled-children face index,
// taken once at the start of a pipeline run. It maps external face ids
// (legacy single id or any id from the multi-id set) back to children.
type Registry struct {
	byFaceID map[string]models.Child
}

// NewRegistry builds a snapshot from taggable children. Children without
// any face identifier are skipped; if both a legacy and a multi-id child
// claim the same external id, the first one seen wins.
func NewRegistry(children []models.Child) *Registry {
	byFaceID := make(map[string]models.Child)
	for _, c := range children {
		if !c.HasFaceIDs() {
			continue
		}
		if c.LegacyFaceID != "" {
			if _, ok := byFaceID[c.LegacyFaceID]; !ok {
				byFaceID[c.LegacyFaceID] = c
			}
		}
		for _, id := range c.FaceIDs {
			if _, ok := byFaceID[id]; !ok {
				byFaceID[id] = c
			}
		}
	}
	return &Registry{byFaceID: byFaceID}
}

// Resolve maps an external face id to the enrolled child it belongs to.
func (r *Registry) Resolve(externalFaceID string) (models.Child, bool) {
	c, ok := r.byFaceID[externalFaceID]
	return c, ok
}

// Size returns the number of distinct external face ids in the snapshot.
func (r *Registry) Size() int {
	return len(r.byFaceID)
}
