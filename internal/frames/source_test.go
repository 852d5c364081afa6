package frames

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/your-org/facetag/internal/config"
)

func newTestClient(t *testing.T, baseURL string, interval, scanCap time.Duration) *DeliveryClient {
	t.Helper()
	c, err := NewDeliveryClient(config.DeliveryConfig{
		BaseURL:      baseURL,
		MediaPattern: `^https://cdn\.[^/]+/media/([A-Za-z0-9_-]+)`,
		Timeout:      5 * time.Second,
	}, interval, scanCap)
	if err != nil {
		t.Fatalf("NewDeliveryClient() error = %v", err)
	}
	return c
}

func TestMediaID(t *testing.T) {
	c := newTestClient(t, "https://cdn.example.com", 500*time.Millisecond, time.Second)

	tests := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://cdn.example.com/media/abc123/stream.m3u8", "abc123", true},
		{"https://cdn.example.com/media/vid_42-x", "vid_42-x", true},
		{"https://other.example.com/media/abc123", "", false},
		{"https://example.com/videos/abc123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		id, ok := c.MediaID(tt.url)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("MediaID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestStreamOffsets(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/vid1/thumbnail.jpg" {
			t.Errorf("path = %s", r.URL.Path)
		}
		requested = append(requested, r.URL.Query().Get("t"))
		_, _ = w.Write([]byte("frame"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 500*time.Millisecond, 2*time.Second)

	var offsets []float64
	err := c.Stream(context.Background(), "vid1", func(offset float64, frame []byte) error {
		offsets = append(offsets, offset)
		if string(frame) != "frame" {
			t.Errorf("frame body = %q", frame)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	wantOffsets := []float64{0, 0.5, 1, 1.5, 2}
	if len(offsets) != len(wantOffsets) {
		t.Fatalf("got %d frames, want %d", len(offsets), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if offsets[i] != want {
			t.Errorf("offset[%d] = %v, want %v", i, offsets[i], want)
		}
	}

	wantParams := []string{"0.0", "0.5", "1.0", "1.5", "2.0"}
	for i, want := range wantParams {
		if requested[i] != want {
			t.Errorf("t param[%d] = %q, want %q", i, requested[i], want)
		}
	}
}

func TestStreamSkipsFailedFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == "0.5" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("frame"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 500*time.Millisecond, 2*time.Second)

	var offsets []float64
	err := c.Stream(context.Background(), "vid1", func(offset float64, frame []byte) error {
		offsets = append(offsets, offset)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := []float64{0, 1, 1.5, 2}
	if len(offsets) != len(want) {
		t.Fatalf("got %d frames %v, want %d", len(offsets), offsets, len(want))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset[%d] = %v, want %v", i, offsets[i], want[i])
		}
	}
}

func TestStreamCallbackErrorAborts(t *testing.T) {
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		_, _ = w.Write([]byte("frame"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 500*time.Millisecond, 10*time.Second)

	boom := errors.New("boom")
	err := c.Stream(context.Background(), "vid1", func(offset float64, frame []byte) error {
		if offset >= 1 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Stream() error = %v, want boom", err)
	}
	if served != 3 {
		t.Errorf("served %d frames before abort, want 3", served)
	}
}

func TestStreamRestartable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("frame"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 500*time.Millisecond, time.Second)

	collect := func() []float64 {
		var offsets []float64
		if err := c.Stream(context.Background(), "vid1", func(offset float64, _ []byte) error {
			offsets = append(offsets, offset)
			return nil
		}); err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		return offsets
	}

	first := collect()
	second := collect()
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("offset[%d] differs across runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestStreamContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("frame"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 500*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	err := c.Stream(ctx, "vid1", func(offset float64, _ []byte) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
}
