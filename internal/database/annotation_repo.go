package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdimtricp/framecast/internal/models"
)

// AnnotationRepository covers the small surface the frame pipeline needs from
// annotations: cascading delete and enough read/write access to verify it.
// Annotation editing itself belongs to a separate service.
type AnnotationRepository struct {
	db *DB
}

func NewAnnotationRepository(db *DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

func (r *AnnotationRepository) Insert(ctx context.Context, annotation *models.Annotation) error {
	query := r.db.rebind(`
		INSERT INTO annotations (id, video_id, frame_id, label, x1, y1, x2, y2, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.conn.ExecContext(ctx, query,
		annotation.ID,
		annotation.VideoID,
		annotation.FrameID,
		annotation.Label,
		annotation.X1,
		annotation.Y1,
		annotation.X2,
		annotation.Y2,
		annotation.StartTime,
		annotation.EndTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}

func (r *AnnotationRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Annotation, error) {
	query := r.db.rebind(`
		SELECT id, video_id, frame_id, label, x1, y1, x2, y2, start_time, end_time
		FROM annotations
		WHERE video_id = ?`)

	rows, err := r.db.conn.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var annotations []models.Annotation
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(
			&a.ID, &a.VideoID, &a.FrameID, &a.Label,
			&a.X1, &a.Y1, &a.X2, &a.Y2,
			&a.StartTime, &a.EndTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}

func (r *AnnotationRepository) DeleteByVideoTx(ctx context.Context, tx *sql.Tx, videoID string) error {
	query := r.db.rebind(`DELETE FROM annotations WHERE video_id = ?`)
	if _, err := tx.ExecContext(ctx, query, videoID); err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}
	return nil
}
