package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "frames_processed_total",
		Help:      "Total number of frames sampled and analyzed",
	}, []string{"video_id"})

	FramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "frames_skipped_total",
		Help:      "Total number of frames skipped (fetch failure or detect error)",
	}, []string{"video_id"})

	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected in sampled frames",
	}, []string{"video_id"})

	FacesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "faces_matched_total",
		Help:      "Total number of faces matched to an enrolled child",
	}, []string{"video_id"})

	TagsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "tags_written_total",
		Help:      "Total number of face tags persisted",
	}, []string{"kind"}) // confirmed | tentative

	VideosScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facetag",
		Name:      "videos_scanned_total",
		Help:      "Total number of videos by scan outcome",
	}, []string{"outcome"}) // complete | failed | skipped

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facetag",
		Name:      "stage_duration_seconds",
		Help:      "Duration of external pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"}) // fetch | detect | search | thumbnail | persist

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facetag",
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of a full per-video scan",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facetag",
		Name:      "analyze_queue_depth",
		Help:      "Number of analyze jobs waiting in the queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facetag",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
