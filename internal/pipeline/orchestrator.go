package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facetag/internal/config"
	"github.com/your-org/facetag/internal/frames"
	"github.com/your-org/facetag/internal/models"
	"github.com/your-org/facetag/internal/observability"
	"github.com/your-org/facetag/internal/vision"
)

// ErrNotEligible is returned by ScanOne when the video's media URL does not
// match the delivery-service pattern.
var ErrNotEligible = errors.New("video media url does not match delivery pattern")

// FrameSource produces still frames for a video's media id at fixed offsets.
type FrameSource interface {
	MediaID(mediaURL string) (string, bool)
	Stream(ctx context.Context, mediaID string, fn frames.FrameFunc) error
}

// Detector wraps the external face detection service.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]vision.BoundingBox, error)
}

// Searcher wraps the external face recognition service.
type Searcher interface {
	EnsureCollection(ctx context.Context) error
	Search(ctx context.Context, face []byte, threshold float64) ([]vision.Match, error)
}

// VideoStore is the relational read/write surface the pipeline needs.
type VideoStore interface {
	ListVideos(ctx context.Context) ([]models.Video, error)
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus, errMsg string) error
	ListTaggableChildren(ctx context.Context) ([]models.Child, error)
}

// TagStore replaces a video's tag set as a unit.
type TagStore interface {
	ReplaceTags(ctx context.Context, videoID uuid.UUID, tags []models.FaceTag) error
}

// ThumbnailStore persists cropped face thumbnails.
type ThumbnailStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Deps are the injected collaborators for an Orchestrator.
type Deps struct {
	Videos   VideoStore
	Tags     TagStore
	Thumbs   ThumbnailStore
	Source   FrameSource
	Detector Detector
	Searcher Searcher
	Limiter  Limiter
}

// Report summarizes one pipeline run.
type Report struct {
	Eligible    int
	Skipped     int
	Completed   int
	Failed      int
	TagsWritten int
}

// Orchestrator drives the face-tagging scan: one video at a time, one frame
// at a time, one detected face at a time. Sequential by design so the fixed
// inter-frame delay bounds the call rate against the external services.
type Orchestrator struct {
	deps            Deps
	cfg             config.PipelineConfig
	classifier      vision.Classifier
	searchThreshold float64
}

func New(deps Deps, pipeCfg config.PipelineConfig, visionCfg config.VisionConfig) *Orchestrator {
	if deps.Limiter == nil {
		deps.Limiter = NewFrameLimiter(pipeCfg.FrameDelay)
	}
	return &Orchestrator{
		deps:            deps,
		cfg:             pipeCfg,
		classifier:      vision.Classifier{ConfirmThreshold: pipeCfg.ConfirmThreshold},
		searchThreshold: visionCfg.SearchThreshold,
	}
}

// Run scans every eligible video against the current child registry.
// A failure inside one video marks it failed and moves on; a failure in
// the upfront registry load or video enumeration aborts the whole run.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	var report Report

	registry, err := o.loadRegistry(ctx)
	if err != nil {
		return report, err
	}

	videos, err := o.deps.Videos.ListVideos(ctx)
	if err != nil {
		return report, fmt.Errorf("list videos: %w", err)
	}

	slog.Info("starting batch scan",
		"videos", len(videos),
		"registered_faces", registry.Size(),
		"sample_interval", o.cfg.SampleInterval,
		"scan_cap", o.cfg.ScanCap,
	)

	for i := range videos {
		v := &videos[i]

		if err := ctx.Err(); err != nil {
			return report, err
		}

		mediaID, ok := o.deps.Source.MediaID(v.MediaURL)
		if !ok {
			// Not hosted on the delivery service: status and tags untouched.
			slog.Debug("video not eligible", "video_id", v.ID, "media_url", v.MediaURL)
			observability.VideosScanned.WithLabelValues("skipped").Inc()
			report.Skipped++
			continue
		}
		report.Eligible++

		written, err := o.scanVideo(ctx, v, mediaID, registry)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			slog.Error("video scan failed", "video_id", v.ID, "error", err)
			report.Failed++
			continue
		}
		report.Completed++
		report.TagsWritten += written
	}

	slog.Info("batch scan finished",
		"eligible", report.Eligible,
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"tags_written", report.TagsWritten,
	)
	return report, nil
}

// ScanOne runs the pipeline for a single video, resetting its status to
// pending first. This is the on-demand path behind the analyze trigger.
func (o *Orchestrator) ScanOne(ctx context.Context, videoID uuid.UUID) error {
	v, err := o.deps.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("video %s not found", videoID)
	}

	mediaID, ok := o.deps.Source.MediaID(v.MediaURL)
	if !ok {
		return ErrNotEligible
	}

	if err := o.deps.Videos.UpdateAnalysisStatus(ctx, v.ID, models.AnalysisStatusPending, ""); err != nil {
		return err
	}

	registry, err := o.loadRegistry(ctx)
	if err != nil {
		return err
	}

	written, err := o.scanVideo(ctx, v, mediaID, registry)
	if err != nil {
		return err
	}
	slog.Info("on-demand scan finished", "video_id", v.ID, "tags_written", written)
	return nil
}

// loadRegistry performs the once-per-run step 0: make sure the recognition
// collection exists and snapshot the enrolled children.
func (o *Orchestrator) loadRegistry(ctx context.Context) (*vision.Registry, error) {
	if err := o.deps.Searcher.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	children, err := o.deps.Videos.ListTaggableChildren(ctx)
	if err != nil {
		return nil, fmt.Errorf("load child registry: %w", err)
	}
	return vision.NewRegistry(children), nil
}

// scanVideo walks one video through the state machine:
// analyzing → complete on success, analyzing → failed on any escape.
// The computed tag set replaces the previous one in a single transaction,
// so re-runs are idempotent and readers never see a half-written set.
func (o *Orchestrator) scanVideo(ctx context.Context, v *models.Video, mediaID string, registry *vision.Registry) (written int, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
		observability.ScanDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			observability.VideosScanned.WithLabelValues("failed").Inc()
			if updErr := o.deps.Videos.UpdateAnalysisStatus(ctx, v.ID, models.AnalysisStatusFailed, err.Error()); updErr != nil {
				slog.Error("mark video failed", "video_id", v.ID, "error", updErr)
			}
			return
		}
		observability.VideosScanned.WithLabelValues("complete").Inc()
		if updErr := o.deps.Videos.UpdateAnalysisStatus(ctx, v.ID, models.AnalysisStatusComplete, ""); updErr != nil {
			slog.Error("mark video complete", "video_id", v.ID, "error", updErr)
		}
	}()

	if err = o.deps.Videos.UpdateAnalysisStatus(ctx, v.ID, models.AnalysisStatusAnalyzing, ""); err != nil {
		return 0, fmt.Errorf("mark video analyzing: %w", err)
	}

	slog.Info("scanning video", "video_id", v.ID, "media_id", mediaID)

	tags, err := o.collectTags(ctx, v, mediaID, registry)
	if err != nil {
		return 0, err
	}

	persistStart := time.Now()
	err = o.deps.Tags.ReplaceTags(ctx, v.ID, tags)
	observability.StageDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
	if err != nil {
		return 0, fmt.Errorf("replace tags: %w", err)
	}

	return len(tags), nil
}

// collectTags runs the per-frame loop: detect → crop → search → resolve →
// classify → thumbnail. Sub-threshold matches, undersized crops and
// unresolved face ids are informational skips, not errors; a detect or
// search call failure skips just that frame or face.
func (o *Orchestrator) collectTags(ctx context.Context, v *models.Video, mediaID string, registry *vision.Registry) ([]models.FaceTag, error) {
	videoLabel := v.ID.String()
	window := o.cfg.AppearanceWindow.Seconds()
	tags := make([]models.FaceTag, 0)

	err := o.deps.Source.Stream(ctx, mediaID, func(offset float64, frame []byte) error {
		if err := o.deps.Limiter.Wait(ctx); err != nil {
			return err
		}

		observability.FramesProcessed.WithLabelValues(videoLabel).Inc()

		detectStart := time.Now()
		boxes, err := o.deps.Detector.Detect(ctx, frame)
		observability.StageDuration.WithLabelValues("detect").Observe(time.Since(detectStart).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("detect failed, skipping frame", "video_id", v.ID, "offset", offset, "error", err)
			observability.FramesSkipped.WithLabelValues(videoLabel).Inc()
			return nil
		}
		if len(boxes) == 0 {
			return nil
		}
		observability.FacesDetected.WithLabelValues(videoLabel).Add(float64(len(boxes)))

		for i, box := range boxes {
			tag, ok := o.tagFace(ctx, v, offset, i, frame, box, registry)
			if !ok {
				continue
			}
			tag.EndTime = tag.StartTime + window
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("frame loop: %w", err)
	}

	return tags, nil
}

// tagFace processes one detected face. ok is false for every skip case:
// undersized crop, no candidate above the search threshold, no face found
// in the crop, or a face id no enrolled child owns.
func (o *Orchestrator) tagFace(ctx context.Context, v *models.Video, offset float64, faceIdx int, frame []byte, box vision.BoundingBox, registry *vision.Registry) (models.FaceTag, bool) {
	videoLabel := v.ID.String()

	crop, err := vision.CropFace(frame, box, o.cfg.MinCropPx)
	if err != nil {
		slog.Warn("crop failed", "video_id", v.ID, "offset", offset, "face", faceIdx, "error", err)
		return models.FaceTag{}, false
	}
	if crop == nil {
		slog.Debug("crop below minimum size", "video_id", v.ID, "offset", offset, "face", faceIdx)
		return models.FaceTag{}, false
	}

	searchStart := time.Now()
	matches, err := o.deps.Searcher.Search(ctx, crop, o.searchThreshold)
	observability.StageDuration.WithLabelValues("search").Observe(time.Since(searchStart).Seconds())
	if err != nil {
		if !errors.Is(err, vision.ErrNoFaceInImage) {
			slog.Warn("search failed, skipping face", "video_id", v.ID, "offset", offset, "face", faceIdx, "error", err)
		}
		return models.FaceTag{}, false
	}
	if len(matches) == 0 {
		return models.FaceTag{}, false
	}

	// Only the top-ranked candidate counts; lower-ranked matches for the
	// same crop are discarded.
	top := matches[0]

	child, ok := registry.Resolve(top.ExternalFaceID)
	if !ok {
		slog.Debug("face id not in registry", "video_id", v.ID, "face_id", top.ExternalFaceID)
		return models.FaceTag{}, false
	}
	observability.FacesMatched.WithLabelValues(videoLabel).Inc()

	key := fmt.Sprintf("thumbnails/%s/t%07.1f_f%d.jpg", v.ID, offset, faceIdx)
	thumbStart := time.Now()
	if err := o.deps.Thumbs.PutObject(ctx, key, crop, "image/jpeg"); err != nil {
		slog.Warn("save thumbnail", "video_id", v.ID, "key", key, "error", err)
		key = ""
	}
	observability.StageDuration.WithLabelValues("thumbnail").Observe(time.Since(thumbStart).Seconds())

	tentative := o.classifier.IsTentative(top.Similarity)
	if tentative {
		observability.TagsWritten.WithLabelValues("tentative").Inc()
	} else {
		observability.TagsWritten.WithLabelValues("confirmed").Inc()
	}

	return models.FaceTag{
		ID:           uuid.New(),
		VideoID:      v.ID,
		ChildID:      child.ID,
		Label:        child.Name,
		StartTime:    offset,
		Confidence:   top.Similarity,
		ThumbnailKey: key,
		IsTentative:  tentative,
	}, true
}
