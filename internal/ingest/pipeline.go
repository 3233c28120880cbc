// Package ingest coordinates the upload → probe → decode → sample → persist
// pipeline. Each operation threads its context explicitly; nothing here
// keeps per-request state between calls.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/media"
	"github.com/kdimtricp/framecast/internal/models"
	"github.com/kdimtricp/framecast/internal/storage"
)

// ErrUnsupportedFile is returned for uploads that are not .mp4 containers.
var ErrUnsupportedFile = errors.New("unsupported file type, only .mp4 is allowed")

// MediaEngine is the decode side of the pipeline. Satisfied by media.FFmpeg;
// tests substitute a synthetic source.
type MediaEngine interface {
	Probe(ctx context.Context, path string) (media.ProbeResult, error)
	OpenDecoder(ctx context.Context, path string, width, height int) (media.FrameSource, error)
}

// Upload carries one multipart submission into Save.
type Upload struct {
	File        io.Reader
	Filename    string
	Title       string
	Description string
	Physician   string
	FrameRate   int
	UploadDate  time.Time
}

type Pipeline struct {
	store       *storage.LocalStore
	db          *database.DB
	videos      *database.VideoRepository
	frames      *database.FrameRepository
	annotations *database.AnnotationRepository
	media       MediaEngine
	logger      *zap.Logger

	// Bounds concurrent decode passes; decode/encode is CPU-bound and one
	// ffmpeg per core is already plenty.
	workers     *semaphore.Weighted
	jpegQuality int
}

type Options struct {
	Workers     int
	JPEGQuality int
}

func New(store *storage.LocalStore, db *database.DB, videos *database.VideoRepository,
	frames *database.FrameRepository, annotations *database.AnnotationRepository,
	engine MediaEngine, logger *zap.Logger, opts Options) *Pipeline {

	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}

	return &Pipeline{
		store:       store,
		db:          db,
		videos:      videos,
		frames:      frames,
		annotations: annotations,
		media:       engine,
		logger:      logger,
		workers:     semaphore.NewWeighted(int64(opts.Workers)),
		jpegQuality: opts.JPEGQuality,
	}
}

// Save validates and persists an upload: folder, file bytes, container probe,
// video row. The folder name derives from the file's base name, so a second
// upload of the same file fails with storage.ErrFolderExists before any I/O
// on the existing data.
func (p *Pipeline) Save(ctx context.Context, up Upload) (*models.Video, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext != ".mp4" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, up.Filename)
	}

	base := strings.TrimSuffix(filepath.Base(up.Filename), filepath.Ext(up.Filename))
	title := up.Title
	if title == "" {
		title = base
	}

	folder, err := p.store.CreateVideoDir(base)
	if err != nil {
		return nil, err
	}

	filePath, err := p.store.SaveVideo(folder, filepath.Base(up.Filename), up.File)
	if err != nil {
		p.cleanupFolder(folder)
		return nil, err
	}
	p.logger.Info("video saved", zap.String("path", filePath))

	probe, err := p.media.Probe(ctx, filePath)
	if err != nil {
		p.cleanupFolder(folder)
		return nil, err
	}

	uploadDate := up.UploadDate
	if uploadDate.IsZero() {
		uploadDate = time.Now().UTC()
	}

	video := models.NewVideo(title, up.Description, up.Physician,
		filePath, filepath.Join(folder, "frames"),
		int(probe.Duration), uploadDate)

	if err := p.videos.InsertVideo(ctx, video); err != nil {
		p.cleanupFolder(folder)
		return nil, err
	}

	p.logger.Info("video record created",
		zap.String("video_id", video.ID),
		zap.String("title", video.Title),
		zap.Int("duration", video.Duration),
	)
	return video, nil
}

// ExtractFrames decodes the video and persists every stride-th frame as a
// JPEG plus a frame row. The batch insert and the video completion update
// commit together; a database failure rolls both back so the record never
// claims completion it does not have. Individual frame encode failures are
// logged and skipped. Returns the number of frames persisted.
func (p *Pipeline) ExtractFrames(ctx context.Context, videoID string, stride int) (int, error) {
	if stride < 1 {
		stride = 1
	}

	video, err := p.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return 0, err
	}

	if err := p.workers.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("failed to acquire extraction worker: %w", err)
	}
	defer p.workers.Release(1)

	probe, err := p.media.Probe(ctx, video.FilePath)
	if err != nil {
		return 0, err
	}

	framesDir, err := p.store.EnsureFramesDir(filepath.Dir(video.FilePath))
	if err != nil {
		return 0, err
	}

	decoder, err := p.media.OpenDecoder(ctx, video.FilePath, probe.Width, probe.Height)
	if err != nil {
		return 0, err
	}
	defer decoder.Close()

	p.logger.Info("starting frame extraction",
		zap.String("video_id", video.ID),
		zap.Int("stride", stride),
		zap.Float64("fps", probe.FPS),
	)

	var batch []models.Frame
	for {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("decode failed: %w", err)
		}
		if frame.Index%stride != 0 {
			continue
		}

		name := fmt.Sprintf("%s_%04d.jpg", video.Title, frame.Index)
		path := filepath.Join(framesDir, name)
		if err := media.WriteJPEG(frame, path, p.jpegQuality); err != nil {
			p.logger.Warn("skipping frame that failed to encode",
				zap.String("video_id", video.ID),
				zap.Int("frame", frame.Index),
				zap.Error(err),
			)
			continue
		}

		seconds := float64(frame.Index) / probe.FPS
		batch = append(batch, models.NewFrame(video.ID, path, frame.Index,
			clockTime(seconds), int(math.Mod(seconds, 1)*1000)))
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := p.frames.BulkInsertTx(ctx, tx, batch); err != nil {
		return 0, err
	}
	if err := p.videos.CompleteExtractionTx(ctx, tx, video.ID, len(batch), framesDir); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit extraction: %w", err)
	}

	p.logger.Info("frame extraction finished",
		zap.String("video_id", video.ID),
		zap.Int("frames", len(batch)),
	)
	return len(batch), nil
}

// Delete removes the video folder, then the annotation, frame and video rows
// in one transaction. A filesystem failure aborts before any row is touched;
// the row deletes commit together so a database failure cannot leave a
// partial cascade.
func (p *Pipeline) Delete(ctx context.Context, videoID string) error {
	video, err := p.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return err
	}

	folder := filepath.Dir(video.FilePath)
	if err := p.store.RemoveVideoDir(folder); err != nil {
		return fmt.Errorf("failed to delete video folder: %w", err)
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := p.annotations.DeleteByVideoTx(ctx, tx, videoID); err != nil {
		return err
	}
	if err := p.frames.DeleteByVideoTx(ctx, tx, videoID); err != nil {
		return err
	}
	if err := p.videos.DeleteVideoTx(ctx, tx, videoID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deletion: %w", err)
	}

	p.logger.Info("video deleted", zap.String("video_id", videoID))
	return nil
}

func (p *Pipeline) cleanupFolder(folder string) {
	if err := p.store.RemoveVideoDir(folder); err != nil {
		p.logger.Warn("failed to clean up video folder", zap.String("folder", folder), zap.Error(err))
	}
}

// clockTime renders whole seconds as HH:MM:SS.
func clockTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
