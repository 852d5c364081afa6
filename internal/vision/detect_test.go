package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/your-org/facetag/internal/config"
)

func newDetectClient(url string) *DetectClient {
	return NewDetectClient(config.VisionConfig{
		DetectURL: url,
		Timeout:   5 * time.Second,
	})
}

func TestDetect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/detect" {
			t.Errorf("path = %s, want /v1/detect", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("content type = %s, want image/jpeg", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces":[
			{"box":{"left":0.1,"top":0.2,"width":0.3,"height":0.4},"confidence":0.99},
			{"box":{"left":0.5,"top":0.5,"width":0.2,"height":0.2},"confidence":0.87}
		]}`))
	}))
	defer srv.Close()

	boxes, err := newDetectClient(srv.URL).Detect(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("Detect() returned %d boxes, want 2", len(boxes))
	}
	if boxes[0].Left != 0.1 || boxes[0].Top != 0.2 || boxes[0].Width != 0.3 || boxes[0].Height != 0.4 {
		t.Errorf("first box = %+v", boxes[0])
	}
}

func TestDetectNoFaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"faces":[]}`))
	}))
	defer srv.Close()

	boxes, err := newDetectClient(srv.URL).Detect(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(boxes) != 0 {
		t.Errorf("Detect() returned %d boxes, want 0", len(boxes))
	}
}

func TestDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newDetectClient(srv.URL).Detect(context.Background(), []byte("jpeg-bytes"))
	if err == nil {
		t.Error("Detect() expected error on 500")
	}
}
