package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/your-org/facetag/internal/config"
)

// ErrNoFaceInImage is the recognition service's "image has no detectable
// face" condition. Callers treat it as zero matches, not a fault.
var ErrNoFaceInImage = errors.New("no face in image")

// Match is one ranked candidate from a recognition search.
type Match struct {
	ExternalFaceID string  `json:"face_id"`
	Similarity     float64 `json:"similarity"` // 0-100
}

// SearchClient wraps the external face recognition service. Searches run
// against a named collection of previously enrolled faces.
type SearchClient struct {
	url        string
	collection string
	client     *http.Client
}

func NewSearchClient(cfg config.VisionConfig) *SearchClient {
	return &SearchClient{
		url:        cfg.SearchURL,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResponse struct {
	Matches []Match `json:"matches"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Search submits a cropped face image and returns candidate matches ranked
// by similarity, best first. threshold is the minimum similarity (0-100)
// the service should consider; the caller deliberately keeps it low and
// filters downstream.
func (c *SearchClient) Search(ctx context.Context, face []byte, threshold float64) ([]Match, error) {
	u := fmt.Sprintf("%s/v1/collections/%s/search?min_similarity=%s",
		c.url, url.PathEscape(c.collection), url.QueryEscape(fmt.Sprintf("%g", threshold)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(face))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var svcErr serviceError
		if err := json.NewDecoder(resp.Body).Decode(&svcErr); err == nil && svcErr.Code == "NO_FACE_IN_IMAGE" {
			return nil, ErrNoFaceInImage
		}
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, svcErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.Matches, nil
}

// EnsureCollection verifies the enrolled-face collection exists, creating
// it when missing. Idempotent; the pipeline calls it once per run instead
// of checking implicitly on every search.
func (c *SearchClient) EnsureCollection(ctx context.Context) error {
	u := fmt.Sprintf("%s/v1/collections/%s", c.url, url.PathEscape(c.collection))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		// fall through to create
	default:
		return fmt.Errorf("check collection failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := json.Marshal(map[string]string{"name": c.collection})
	if err != nil {
		return fmt.Errorf("marshal collection request: %w", err)
	}

	createReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/collections", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	createReq.Header.Set("Content-Type", "application/json")

	createResp, err := c.client.Do(createReq)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	defer createResp.Body.Close()

	if createResp.StatusCode != http.StatusOK && createResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create collection failed with status %d: %s",
			createResp.StatusCode, readErrorBody(createResp.Body))
	}
	return nil
}
