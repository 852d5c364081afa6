package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facetag/internal/config"
	"github.com/your-org/facetag/internal/frames"
	"github.com/your-org/facetag/internal/models"
	"github.com/your-org/facetag/internal/observability"
	"github.com/your-org/facetag/internal/pipeline"
	"github.com/your-org/facetag/internal/queue"
	"github.com/your-org/facetag/internal/storage"
	"github.com/your-org/facetag/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facetag worker",
		"sample_interval", cfg.Pipeline.SampleInterval,
		"scan_cap", cfg.Pipeline.ScanCap,
	)

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

	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
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

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeAnalyzeJobs(ctx, "facetag-workers", func(ctx context.Context, msg jetstream.Msg) error {
		var job models.AnalyzeJob
		if err := json.Unmarshal(msg.Data(), &job); err != nil {
			slog.Error("unmarshal analyze job", "error", err)
			return nil // don't retry on unmarshal errors
		}

		slog.Info("analyze job received", "video_id", job.VideoID, "requested_at", job.RequestedAt)

		if err := orch.ScanOne(ctx, job.VideoID); err != nil {
			if errors.Is(err, pipeline.ErrNotEligible) {
				slog.Warn("video not eligible for analysis", "video_id", job.VideoID)
				return nil
			}
			return fmt.Errorf("scan video %s: %w", job.VideoID, err)
		}
		return nil
	})
	if err != nil {
		slog.Error("start analyze consumer", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", ":8082")
		if err := http.ListenAndServe(":8082", mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Periodically report queue depth
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.QueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}
