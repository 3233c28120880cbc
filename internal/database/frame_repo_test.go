package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kdimtricp/framecast/internal/models"
)

func insertTestFrames(t *testing.T, db *DB, repo *FrameRepository, videoID string, numbers []int) []models.Frame {
	t.Helper()
	ctx := context.Background()

	frames := make([]models.Frame, 0, len(numbers))
	for _, n := range numbers {
		frames = append(frames, models.NewFrame(videoID,
			fmt.Sprintf("/uploads/v/frames/video_%04d.jpg", n),
			n, "00:00:00", n*100%1000))
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := repo.BulkInsertTx(ctx, tx, frames); err != nil {
		t.Fatalf("Failed to bulk insert frames: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	return frames
}

func TestFrameRepository_BulkInsertPreservesOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	videoRepo := NewVideoRepository(db)
	frameRepo := NewFrameRepository(db)
	ctx := context.Background()

	video := testVideo("frames")
	if err := videoRepo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	insertTestFrames(t, db, frameRepo, video.ID, []int{0, 5, 10, 15})

	frames, err := frameRepo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to list frames: %v", err)
	}
	if len(frames) != 4 {
		t.Fatalf("Expected 4 frames, got %d", len(frames))
	}
	for i, want := range []int{0, 5, 10, 15} {
		if frames[i].FrameNumber != want {
			t.Errorf("Frame %d: expected number %d, got %d", i, want, frames[i].FrameNumber)
		}
	}
}

func TestFrameRepository_GetByNumber(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	videoRepo := NewVideoRepository(db)
	frameRepo := NewFrameRepository(db)
	ctx := context.Background()

	video := testVideo("lookup")
	if err := videoRepo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	inserted := insertTestFrames(t, db, frameRepo, video.ID, []int{0, 5, 10})

	frame, err := frameRepo.GetByNumber(ctx, video.ID, 5)
	if err != nil {
		t.Fatalf("Failed to get frame: %v", err)
	}
	if frame.ID != inserted[1].ID {
		t.Errorf("Expected frame id %s, got %s", inserted[1].ID, frame.ID)
	}
	if frame.FilePath != inserted[1].FilePath {
		t.Errorf("Expected path %s, got %s", inserted[1].FilePath, frame.FilePath)
	}

	_, err = frameRepo.GetByNumber(ctx, video.ID, 7)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing number, got %v", err)
	}
}

func TestFrameRepository_DeleteByVideo(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	videoRepo := NewVideoRepository(db)
	frameRepo := NewFrameRepository(db)
	ctx := context.Background()

	video := testVideo("todelete")
	if err := videoRepo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}
	insertTestFrames(t, db, frameRepo, video.ID, []int{0, 1, 2})

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := frameRepo.DeleteByVideoTx(ctx, tx, video.ID); err != nil {
		t.Fatalf("Failed to delete frames: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	frames, err := frameRepo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to list frames: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("Expected no frames after delete, got %d", len(frames))
	}
}

func TestRepositories_PostgresParity(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	migrator := NewMigrator(db.Conn(), "postgres", testLogger(t))
	if err := migrator.Run("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	videoRepo := NewVideoRepository(db)
	frameRepo := NewFrameRepository(db)
	ctx := context.Background()

	video := testVideo("parity")
	if err := videoRepo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}
	insertTestFrames(t, db, frameRepo, video.ID, []int{0, 3, 6})

	frames, err := frameRepo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to list frames: %v", err)
	}
	if len(frames) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(frames))
	}
}
