package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/facetag/internal/config"
	"github.com/your-org/facetag/internal/models"
)

// ErrScanInProgress is returned when another pipeline run holds the
// advisory lock for the same video's tag set.
var ErrScanInProgress = errors.New("tag replace already in progress for video")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Videos ---

func (s *PostgresStore) ListVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, media_url, analysis_status, COALESCE(analysis_error, ''), created_at, updated_at
		 FROM videos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.MediaURL, &v.AnalysisStatus,
			&v.AnalysisError, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v := &models.Video{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, media_url, analysis_status, COALESCE(analysis_error, ''), created_at, updated_at
		 FROM videos WHERE id = $1`, id,
	).Scan(&v.ID, &v.Title, &v.MediaURL, &v.AnalysisStatus, &v.AnalysisError, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status models.AnalysisStatus, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos SET analysis_status = $1, analysis_error = $2, updated_at = now() WHERE id = $3`,
		status, errMsg, id)
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	return nil
}

// --- Children ---

// ListTaggableChildren returns children with at least one registered face
// identifier (legacy or multi-id). Children without identifiers cannot be
// matched and are not part of the registry snapshot.
func (s *PostgresStore) ListTaggableChildren(ctx context.Context) ([]models.Child, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(legacy_face_id, ''), face_ids, created_at, updated_at
		 FROM children
		 WHERE COALESCE(legacy_face_id, '') <> '' OR cardinality(face_ids) > 0
		 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list taggable children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var c models.Child
		if err := rows.Scan(&c.ID, &c.Name, &c.LegacyFaceID, &c.FaceIDs, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

// --- Face tags ---

// ReplaceTags atomically swaps a video's tag set: delete plus insert run in
// one transaction under an advisory lock keyed by the video id. Readers
// never observe the intermediate empty state, and a concurrent replace for
// the same video fails with ErrScanInProgress instead of interleaving.
func (s *PostgresStore) ReplaceTags(ctx context.Context, videoID uuid.UUID, tags []models.FaceTag) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked bool
	if err := tx.QueryRow(ctx,
		`SELECT pg_try_advisory_xact_lock(hashtextextended('video_face_tags:' || $1::text, 0))`,
		videoID,
	).Scan(&locked); err != nil {
		return fmt.Errorf("acquire tag lock: %w", err)
	}
	if !locked {
		return ErrScanInProgress
	}

	if _, err := tx.Exec(ctx, `DELETE FROM video_face_tags WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}

	for i := range tags {
		t := &tags[i]
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO video_face_tags
			   (id, video_id, child_id, label, start_time, end_time, confidence, thumbnail_key, is_tentative)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
			t.ID, t.VideoID, t.ChildID, t.Label, t.StartTime, t.EndTime,
			t.Confidence, t.ThumbnailKey, t.IsTentative,
		).Scan(&t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace tags: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTags(ctx context.Context, videoID uuid.UUID) ([]models.FaceTag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, video_id, child_id, label, start_time, end_time, confidence, thumbnail_key, is_tentative, created_at
		 FROM video_face_tags WHERE video_id = $1 ORDER BY start_time, label`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.FaceTag
	for rows.Next() {
		var t models.FaceTag
		if err := rows.Scan(&t.ID, &t.VideoID, &t.ChildID, &t.Label, &t.StartTime, &t.EndTime,
			&t.Confidence, &t.ThumbnailKey, &t.IsTentative, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *PostgresStore) GetTag(ctx context.Context, id uuid.UUID) (*models.FaceTag, error) {
	t := &models.FaceTag{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, video_id, child_id, label, start_time, end_time, confidence, thumbnail_key, is_tentative, created_at
		 FROM video_face_tags WHERE id = $1`, id,
	).Scan(&t.ID, &t.VideoID, &t.ChildID, &t.Label, &t.StartTime, &t.EndTime,
		&t.Confidence, &t.ThumbnailKey, &t.IsTentative, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}
