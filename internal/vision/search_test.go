package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/your-org/facetag/internal/config"
)

func newSearchClient(url string) *SearchClient {
	return NewSearchClient(config.VisionConfig{
		SearchURL:  url,
		Collection: "children",
		Timeout:    5 * time.Second,
	})
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/collections/children/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("min_similarity"); got != "10" {
			t.Errorf("min_similarity = %s, want 10", got)
		}

		_, _ = w.Write([]byte(`{"matches":[
			{"face_id":"face-1","similarity":92.5},
			{"face_id":"face-2","similarity":40.1}
		]}`))
	}))
	defer srv.Close()

	matches, err := newSearchClient(srv.URL).Search(context.Background(), []byte("crop"), 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Search() returned %d matches, want 2", len(matches))
	}
	if matches[0].ExternalFaceID != "face-1" || matches[0].Similarity != 92.5 {
		t.Errorf("top match = %+v", matches[0])
	}
}

func TestSearchNoFaceInImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"NO_FACE_IN_IMAGE","message":"no face found"}`))
	}))
	defer srv.Close()

	_, err := newSearchClient(srv.URL).Search(context.Background(), []byte("crop"), 10)
	if !errors.Is(err, ErrNoFaceInImage) {
		t.Errorf("Search() error = %v, want ErrNoFaceInImage", err)
	}
}

func TestSearchOtherBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"INVALID_IMAGE","message":"corrupt jpeg"}`))
	}))
	defer srv.Close()

	_, err := newSearchClient(srv.URL).Search(context.Background(), []byte("crop"), 10)
	if err == nil {
		t.Fatal("Search() expected error")
	}
	if errors.Is(err, ErrNoFaceInImage) {
		t.Error("Search() classified a different 400 as ErrNoFaceInImage")
	}
}

func TestEnsureCollectionExists(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodGet || r.URL.Path != "/v1/collections/children" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newSearchClient(srv.URL).EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/collections/children":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/collections":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			if body["name"] != "children" {
				t.Errorf("create name = %q, want children", body["name"])
			}
			created = true
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	if err := newSearchClient(srv.URL).EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if !created {
		t.Error("EnsureCollection() never created the missing collection")
	}
}
