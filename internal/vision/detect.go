package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/your-org/facetag/internal/config"
)

// BoundingBox is a detected face region in normalized coordinates
// (0-1, relative to the frame dimensions).
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectClient wraps the external face detection service.
type DetectClient struct {
	url    string
	client *http.Client
}

func NewDetectClient(cfg config.VisionConfig) *DetectClient {
	return &DetectClient{
		url:    cfg.DetectURL,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type detectResponse struct {
	Faces []struct {
		Box        BoundingBox `json:"box"`
		Confidence float64     `json:"confidence"`
	} `json:"faces"`
}

// Detect submits one frame image and returns the detected face boxes.
// Zero detections is a valid, non-error result.
func (c *DetectClient) Detect(ctx context.Context, image []byte) ([]BoundingBox, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detect failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode detect response: %w", err)
	}

	boxes := make([]BoundingBox, 0, len(result.Faces))
	for _, f := range result.Faces {
		boxes = append(boxes, f.Box)
	}
	return boxes, nil
}

// readErrorBody reads a response body for error messages. Returns a
// placeholder if reading fails (we're already on an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
