package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kdimtricp/framecast/internal/models"
)

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) InsertVideo(ctx context.Context, video *models.Video) error {
	query := r.db.rebind(`
		INSERT INTO videos (
			id, title, description, physician, file_path, frames_dir_path,
			duration, frame_count, upload_date, frames_finished, annotated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.conn.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Physician,
		video.FilePath,
		video.FramesDirPath,
		video.Duration,
		video.FrameCount,
		video.UploadDate,
		video.FramesFinished,
		video.Annotated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	query := r.db.rebind(`
		SELECT id, title, description, physician, file_path, frames_dir_path,
			   duration, frame_count, upload_date, frames_finished, annotated
		FROM videos
		WHERE id = ?`)

	video := &models.Video{}
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Physician,
		&video.FilePath,
		&video.FramesDirPath,
		&video.Duration,
		&video.FrameCount,
		&video.UploadDate,
		&video.FramesFinished,
		&video.Annotated,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

// ListVideos returns videos in storage order, paginated by skip/limit.
func (r *VideoRepository) ListVideos(ctx context.Context, skip, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}

	query := r.db.rebind(`
		SELECT id, title, description, physician, file_path, frames_dir_path,
			   duration, frame_count, upload_date, frames_finished, annotated
		FROM videos
		ORDER BY upload_date
		LIMIT ? OFFSET ?`)

	rows, err := r.db.conn.QueryContext(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Description,
			&video.Physician,
			&video.FilePath,
			&video.FramesDirPath,
			&video.Duration,
			&video.FrameCount,
			&video.UploadDate,
			&video.FramesFinished,
			&video.Annotated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// CompleteExtractionTx writes the extraction result as one atomic update:
// frame count, finished flag and frames directory together.
func (r *VideoRepository) CompleteExtractionTx(ctx context.Context, tx *sql.Tx, id string, frameCount int, framesDirPath string) error {
	query := r.db.rebind(`
		UPDATE videos
		SET frame_count = ?, frames_finished = ?, frames_dir_path = ?
		WHERE id = ?`)

	res, err := tx.ExecContext(ctx, query, frameCount, true, framesDirPath, id)
	if err != nil {
		return fmt.Errorf("failed to update video after extraction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VideoRepository) DeleteVideoTx(ctx context.Context, tx *sql.Tx, id string) error {
	query := r.db.rebind(`DELETE FROM videos WHERE id = ?`)
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
