package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/your-org/facetag/internal/config"
	"github.com/your-org/facetag/internal/frames"
	"github.com/your-org/facetag/internal/observability"
	"github.com/your-org/facetag/internal/pipeline"
	"github.com/your-org/facetag/internal/storage"
	"github.com/your-org/facetag/internal/vision"
)

// The scanner is the batch entrypoint: one full pass over the video catalog,
// then exit. Run it from cron or a one-off job. Pass -video to scan a single
// video instead of the whole catalog.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	videoID := flag.String("video", "", "scan only this video id instead of the full catalog")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	source, err := frames.NewDeliveryClient(cfg.Delivery, cfg.Pipeline.SampleInterval, cfg.Pipeline.ScanCap)
	if err != nil {
		slog.Error("init delivery client", "error", err)
		os.Exit(1)
	}

	orch := pipeline.New(pipeline.Deps{
		Videos:   db,
		Tags:     db,
		Thumbs:   minioStore,
		Source:   source,
		Detector: vision.NewDetectClient(cfg.Vision),
		Searcher: vision.NewSearchClient(cfg.Vision),
	}, cfg.Pipeline, cfg.Vision)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *videoID != "" {
		id, err := uuid.Parse(*videoID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid video id %q: %v\n", *videoID, err)
			os.Exit(1)
		}
		if err := orch.ScanOne(ctx, id); err != nil {
			slog.Error("scan failed", "video_id", id, "error", err)
			os.Exit(1)
		}
		return
	}

	report, err := orch.Run(ctx)
	if err != nil {
		slog.Error("batch scan aborted", "error", err)
		os.Exit(1)
	}

	fmt.Printf("scanned %d videos: %d complete, %d failed, %d skipped, %d tags written\n",
		report.Eligible, report.Completed, report.Failed, report.Skipped, report.TagsWritten)

	if report.Failed > 0 {
		os.Exit(1)
	}
}
