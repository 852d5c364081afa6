package frames

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/your-org/facetag/internal/config"
	"github.com/your-org/facetag/internal/observability"
)

// FrameFunc is called for each successfully fetched frame still.
// offset is the frame's position in seconds from the start of the video.
type FrameFunc func(offset float64, frame []byte) error

// DeliveryClient samples still frames from the video delivery service at a
// fixed interval, from 0 up to the scan cap. The sequence is finite and
// restartable: re-invoking Stream regenerates identical offsets. A failed
// fetch skips that frame only; the sequence continues.
type DeliveryClient struct {
	baseURL  *url.URL
	pattern  *regexp.Regexp
	client   *http.Client
	interval time.Duration
	scanCap  time.Duration
}

func NewDeliveryClient(cfg config.DeliveryConfig, interval, scanCap time.Duration) (*DeliveryClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery base url: %w", err)
	}

	pattern, err := regexp.Compile(cfg.MediaPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid media pattern: %w", err)
	}

	return &DeliveryClient{
		baseURL:  base,
		pattern:  pattern,
		client:   &http.Client{Timeout: cfg.Timeout},
		interval: interval,
		scanCap:  scanCap,
	}, nil
}

// MediaID extracts the delivery-service media id from a video's media URL.
// A URL that doesn't match the delivery pattern makes the video ineligible.
func (c *DeliveryClient) MediaID(mediaURL string) (string, bool) {
	m := c.pattern.FindStringSubmatch(mediaURL)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// Stream fetches stills at interval steps and invokes fn for each one.
// Offsets are exact multiples of the interval, bounded by the scan cap;
// videos longer than the cap are only partially scanned. An error returned
// by fn aborts the sequence; fetch failures do not.
func (c *DeliveryClient) Stream(ctx context.Context, mediaID string, fn FrameFunc) error {
	steps := int(c.scanCap / c.interval)

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		offset := (time.Duration(i) * c.interval).Seconds()

		start := time.Now()
		frame, err := c.fetchFrame(ctx, mediaID, offset)
		observability.StageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Debug("frame fetch skipped", "media_id", mediaID, "offset", offset, "error", err)
			observability.FramesSkipped.WithLabelValues(mediaID).Inc()
			continue
		}

		if err := fn(offset, frame); err != nil {
			return err
		}
	}

	return nil
}

// fetchFrame requests a thumbnail-at-timestamp still from the delivery
// service. Non-2xx responses are ordinary skip conditions, not faults.
func (c *DeliveryClient) fetchFrame(ctx context.Context, mediaID string, offset float64) ([]byte, error) {
	u := c.baseURL.JoinPath("media", mediaID, "thumbnail.jpg")
	q := u.Query()
	q.Set("t", fmt.Sprintf("%.1f", offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch frame: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return data, nil
}
