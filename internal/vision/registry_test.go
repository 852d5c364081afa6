package vision

import (
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/facetag/internal/models"
)

func TestRegistryResolve(t *testing.T) {
	alice := models.Child{ID: uuid.New(), Name: "Alice", LegacyFaceID: "legacy-1"}
	bob := models.Child{ID: uuid.New(), Name: "Bob", FaceIDs: []string{"face-1", "face-2"}}
	carol := models.Child{ID: uuid.New(), Name: "Carol"} // no face ids at all

	r := NewRegistry([]models.Child{alice, bob, carol})

	if r.Size() != 3 {
		t.Errorf("Size() = %d, want 3", r.Size())
	}

	tests := []struct {
		faceID   string
		wantName string
		wantOK   bool
	}{
		{"legacy-1", "Alice", true},
		{"face-1", "Bob", true},
		{"face-2", "Bob", true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		c, ok := r.Resolve(tt.faceID)
		if ok != tt.wantOK {
			t.Errorf("Resolve(%q) ok = %v, want %v", tt.faceID, ok, tt.wantOK)
			continue
		}
		if ok && c.Name != tt.wantName {
			t.Errorf("Resolve(%q) = %q, want %q", tt.faceID, c.Name, tt.wantName)
		}
	}
}

func TestRegistryFirstSeenWinsOnDuplicate(t *testing.T) {
	first := models.Child{ID: uuid.New(), Name: "First", FaceIDs: []string{"shared"}}
	second := models.Child{ID: uuid.New(), Name: "Second", LegacyFaceID: "shared"}

	r := NewRegistry([]models.Child{first, second})

	c, ok := r.Resolve("shared")
	if !ok {
		t.Fatal("Resolve(shared) not found")
	}
	if c.Name != "First" {
		t.Errorf("Resolve(shared) = %q, want %q", c.Name, "First")
	}
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry(nil)
	if r.Size() != 0 {
		t.Errorf("Size() = %d, want 0", r.Size())
	}
	if _, ok := r.Resolve("anything"); ok {
		t.Error("Resolve on empty registry returned ok")
	}
}
