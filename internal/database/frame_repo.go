package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdimtricp/framecast/internal/models"
)

type FrameRepository struct {
	db *DB
}

func NewFrameRepository(db *DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// BulkInsertTx persists one extraction pass in a single prepared statement
// inside the caller's transaction, preserving decode order.
func (r *FrameRepository) BulkInsertTx(ctx context.Context, tx *sql.Tx, frames []models.Frame) error {
	if len(frames) == 0 {
		return nil
	}

	query := r.db.rebind(`
		INSERT INTO frames (id, video_id, file_path, frame_number, video_time, video_time_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare frame insert: %w", err)
	}
	defer stmt.Close()

	for _, frame := range frames {
		if _, err := stmt.ExecContext(ctx,
			frame.ID,
			frame.VideoID,
			frame.FilePath,
			frame.FrameNumber,
			frame.Timestamp,
			frame.TimestampMS,
		); err != nil {
			return fmt.Errorf("failed to insert frame %d: %w", frame.FrameNumber, err)
		}
	}
	return nil
}

// ListByVideo returns all frames of a video ordered by frame number.
func (r *FrameRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Frame, error) {
	query := r.db.rebind(`
		SELECT id, video_id, file_path, frame_number, video_time, video_time_ms
		FROM frames
		WHERE video_id = ?
		ORDER BY frame_number`)

	rows, err := r.db.conn.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []models.Frame
	for rows.Next() {
		var frame models.Frame
		if err := rows.Scan(
			&frame.ID,
			&frame.VideoID,
			&frame.FilePath,
			&frame.FrameNumber,
			&frame.Timestamp,
			&frame.TimestampMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, frame)
	}
	return frames, rows.Err()
}

// GetByNumber looks a frame up by its structured frame number.
func (r *FrameRepository) GetByNumber(ctx context.Context, videoID string, frameNumber int) (*models.Frame, error) {
	query := r.db.rebind(`
		SELECT id, video_id, file_path, frame_number, video_time, video_time_ms
		FROM frames
		WHERE video_id = ? AND frame_number = ?`)

	frame := &models.Frame{}
	err := r.db.conn.QueryRowContext(ctx, query, videoID, frameNumber).Scan(
		&frame.ID,
		&frame.VideoID,
		&frame.FilePath,
		&frame.FrameNumber,
		&frame.Timestamp,
		&frame.TimestampMS,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get frame: %w", err)
	}
	return frame, nil
}

func (r *FrameRepository) DeleteByVideoTx(ctx context.Context, tx *sql.Tx, videoID string) error {
	query := r.db.rebind(`DELETE FROM frames WHERE video_id = ?`)
	if _, err := tx.ExecContext(ctx, query, videoID); err != nil {
		return fmt.Errorf("failed to delete frames: %w", err)
	}
	return nil
}
