package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/ingest"
	"github.com/kdimtricp/framecast/internal/models"
	"github.com/kdimtricp/framecast/internal/storage"
)

type App struct {
	Pipeline      *ingest.Pipeline
	VideoRepo     *database.VideoRepository
	FrameRepo     *database.FrameRepository
	Store         *storage.LocalStore
	MaxUploadSize int64
	Logger        *zap.Logger
}

// VideoSummary is the public view of a video record.
type VideoSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	FilePath     string    `json:"file_path"`
	UploadDate   time.Time `json:"upload_date"`
	Physician    string    `json:"physician,omitempty"`
	FramesLoaded bool      `json:"frames_loaded"`
	Duration     int       `json:"duration"`
	IsAnnotated  bool      `json:"isAnnotated"`
}

func summarize(video *models.Video) VideoSummary {
	return VideoSummary{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		FilePath:     video.FilePath,
		UploadDate:   video.UploadDate,
		Physician:    video.Physician,
		FramesLoaded: video.FramesFinished,
		Duration:     video.Duration,
		IsAnnotated:  video.Annotated,
	}
}

func (app *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		app.Logger.Warn("failed to write response", zap.Error(err))
	}
}

func (app *App) writeError(w http.ResponseWriter, status int, detail string) {
	app.writeJSON(w, status, map[string]string{"detail": detail})
}
