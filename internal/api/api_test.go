package api

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/models"
	"github.com/kdimtricp/framecast/internal/storage"
)

type testEnv struct {
	app       *App
	server    *httptest.Server
	videos    *database.VideoRepository
	frameRepo *database.FrameRepository
	db        *database.DB
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	uploadDir := filepath.Join(tmpDir, "uploads")
	logger := zap.NewNop()

	store, err := storage.NewLocalStore(uploadDir, logger)
	require.NoError(t, err)

	db, err := database.NewDB(database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(tmpDir, "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	videos := database.NewVideoRepository(db)
	frameRepo := database.NewFrameRepository(db)

	app := &App{
		VideoRepo:     videos,
		FrameRepo:     frameRepo,
		Store:         store,
		MaxUploadSize: 1 << 20,
		Logger:        logger,
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)

	return &testEnv{
		app:       app,
		server:    server,
		videos:    videos,
		frameRepo: frameRepo,
		db:        db,
		uploadDir: uploadDir,
	}
}

// seedVideo writes a video file of the given content and inserts its record.
func (env *testEnv) seedVideo(t *testing.T, title string, content []byte) *models.Video {
	t.Helper()

	folder := filepath.Join(env.uploadDir, title)
	require.NoError(t, os.MkdirAll(folder, 0755))

	filePath := filepath.Join(folder, title+".mp4")
	require.NoError(t, os.WriteFile(filePath, content, 0644))

	video := models.NewVideo(title, "test clip", "Dr. Example",
		filePath, filepath.Join(folder, "frames"), 2, time.Now().UTC())
	require.NoError(t, env.videos.InsertVideo(context.Background(), video))
	return video
}

// seedFrames writes frame files named <title>_%04d.jpg for each ordinal and
// persists matching rows.
func (env *testEnv) seedFrames(t *testing.T, video *models.Video, ordinals []int) map[int][]byte {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(video.FramesDirPath, 0755))

	contents := make(map[int][]byte, len(ordinals))
	batch := make([]models.Frame, 0, len(ordinals))
	for _, ordinal := range ordinals {
		name := frameName(video.Title, ordinal)
		path := filepath.Join(video.FramesDirPath, name)
		data := []byte("jpeg-bytes-" + name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		contents[ordinal] = data

		seconds := ordinal / 10
		batch = append(batch, models.NewFrame(video.ID, path, ordinal,
			clock(seconds), (ordinal%10)*100))
	}

	tx, err := env.db.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, env.frameRepo.BulkInsertTx(ctx, tx, batch))
	require.NoError(t, env.videos.CompleteExtractionTx(ctx, tx, video.ID, len(batch), video.FramesDirPath))
	require.NoError(t, tx.Commit())

	return contents
}

func frameName(title string, ordinal int) string {
	return fmt.Sprintf("%s_%04d.jpg", title, ordinal)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
