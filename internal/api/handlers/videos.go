package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facetag/internal/models"
	"github.com/your-org/facetag/internal/queue"
	"github.com/your-org/facetag/internal/storage"
)

type VideoHandler struct {
	db       *storage.PostgresStore
	minio    *storage.MinIOStore
	producer *queue.Producer
}

func NewVideoHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer) *VideoHandler {
	return &VideoHandler{db: db, minio: minio, producer: producer}
}

func (h *VideoHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	v, err := h.db.GetVideo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	c.JSON(http.StatusOK, videoToResponse(v))
}

// Analyze resets the video to pending and enqueues an on-demand scan.
// The worker picks the job up and runs the same pipeline as the batch scan,
// scoped to this one video.
func (h *VideoHandler) Analyze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	v, err := h.db.GetVideo(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}

	if v.AnalysisStatus == models.AnalysisStatusAnalyzing {
		c.JSON(http.StatusConflict, gin.H{"error": "video is already being analyzed"})
		return
	}

	if err := h.db.UpdateAnalysisStatus(c.Request.Context(), id, models.AnalysisStatusPending, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	job := models.AnalyzeJob{VideoID: id, RequestedAt: time.Now().UTC()}
	if err := h.producer.PublishAnalyzeJob(c.Request.Context(), job); err != nil {
		_ = h.db.UpdateAnalysisStatus(c.Request.Context(), id, models.AnalysisStatusFailed, "failed to enqueue analyze job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue analyze job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "pending", "video_id": id})
}

func (h *VideoHandler) ListTags(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video id"})
		return
	}

	tags, err := h.db.ListTags(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagToResponse(&t))
	}

	c.JSON(http.StatusOK, gin.H{"tags": resp, "total": len(resp)})
}

// Thumbnail proxies the tag's cropped face image from MinIO.
func (h *VideoHandler) Thumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
		return
	}

	tag, err := h.db.GetTag(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tag == nil || tag.ThumbnailKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnail not found"})
		return
	}

	data, err := h.minio.GetObject(c.Request.Context(), tag.ThumbnailKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnail not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

type videoResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	MediaURL       string    `json:"media_url"`
	AnalysisStatus string    `json:"analysis_status"`
	AnalysisError  string    `json:"analysis_error,omitempty"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

type tagResponse struct {
	ID           uuid.UUID `json:"id"`
	VideoID      uuid.UUID `json:"video_id"`
	ChildID      uuid.UUID `json:"child_id"`
	Label        string    `json:"label"`
	StartTime    float64   `json:"start_time"`
	EndTime      float64   `json:"end_time"`
	Confidence   float64   `json:"confidence"`
	IsTentative  bool      `json:"is_tentative"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    string    `json:"created_at"`
}

func videoToResponse(v *models.Video) videoResponse {
	return videoResponse{
		ID:             v.ID,
		Title:          v.Title,
		MediaURL:       v.MediaURL,
		AnalysisStatus: string(v.AnalysisStatus),
		AnalysisError:  v.AnalysisError,
		CreatedAt:      v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      v.UpdatedAt.Format(time.RFC3339),
	}
}

func tagToResponse(t *models.FaceTag) tagResponse {
	r := tagResponse{
		ID:          t.ID,
		VideoID:     t.VideoID,
		ChildID:     t.ChildID,
		Label:       t.Label,
		StartTime:   t.StartTime,
		EndTime:     t.EndTime,
		Confidence:  t.Confidence,
		IsTentative: t.IsTentative,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.ThumbnailKey != "" {
		r.ThumbnailURL = "/v1/tags/" + t.ID.String() + "/thumbnail"
	}
	return r
}
