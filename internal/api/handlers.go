package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/frames"
	"github.com/kdimtricp/framecast/internal/ingest"
	"github.com/kdimtricp/framecast/internal/media"
	"github.com/kdimtricp/framecast/internal/models"
	"github.com/kdimtricp/framecast/internal/storage"
)

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		app.writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	description := r.FormValue("description")
	physician := r.FormValue("physician")

	frameRate := 1
	if v := r.FormValue("framerate"); v != "" {
		frameRate, err = strconv.Atoi(v)
		if err != nil || frameRate < 1 {
			app.writeError(w, http.StatusBadRequest, "Invalid framerate")
			return
		}
	}

	var uploadDate time.Time
	if v := r.FormValue("upload_date"); v != "" {
		uploadDate, err = time.Parse(time.RFC3339, v)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid upload_date, expected RFC3339")
			return
		}
	}

	video, err := app.Pipeline.Save(r.Context(), ingest.Upload{
		File:        file,
		Filename:    header.Filename,
		Title:       title,
		Description: description,
		Physician:   physician,
		FrameRate:   frameRate,
		UploadDate:  uploadDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFile):
			app.writeError(w, http.StatusBadRequest, "Invalid file type. Only .mp4 is allowed.")
		case errors.Is(err, storage.ErrFolderExists):
			app.writeError(w, http.StatusConflict, "A video with this file name already exists.")
		case errors.Is(err, media.ErrInvalidMedia):
			app.writeError(w, http.StatusInternalServerError, "Could not read the video container.")
		default:
			app.Logger.Error("upload failed", zap.Error(err))
			app.writeError(w, http.StatusInternalServerError, "Failed to save video")
		}
		return
	}

	app.writeJSON(w, http.StatusCreated, summarize(video))
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	videos, err := app.VideoRepo.ListVideos(r.Context(), skip, limit)
	if err != nil {
		app.Logger.Error("failed to list videos", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Error loading videos")
		return
	}

	summaries := make([]VideoSummary, 0, len(videos))
	for i := range videos {
		summaries = append(summaries, summarize(&videos[i]))
	}
	app.writeJSON(w, http.StatusOK, summaries)
}

func (app *App) VideoMetadataHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}
	app.writeJSON(w, http.StatusOK, summarize(video))
}

func (app *App) MakeFramesHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	stride := 1
	if v := r.URL.Query().Get("framerate"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			app.writeError(w, http.StatusBadRequest, "Invalid framerate")
			return
		}
		stride = parsed
	}

	count, err := app.Pipeline.ExtractFrames(r.Context(), videoID, stride)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Video not found")
			return
		}
		app.Logger.Error("frame extraction failed", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Frame extraction failed")
		return
	}

	app.writeJSON(w, http.StatusOK, map[string]any{
		"message":    "make frames out of video",
		"successful": true,
		"count":      count,
	})
}

func (app *App) FramesByRateHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}

	rate, err := strconv.Atoi(chi.URLParam(r, "rate"))
	if err != nil || rate < 1 {
		app.writeError(w, http.StatusBadRequest, "Invalid frame rate")
		return
	}

	descriptors, err := app.filteredByRate(r, video, rate)
	if err != nil {
		app.Logger.Error("failed to filter frames", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Error loading frames")
		return
	}
	if len(descriptors) == 0 {
		app.writeError(w, http.StatusNotFound, "No frames found")
		return
	}

	app.writeJSON(w, http.StatusOK, descriptors)
}

func (app *App) FramesByAmountHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}

	amount, err := strconv.Atoi(chi.URLParam(r, "amount"))
	if err != nil || amount < 1 {
		app.writeError(w, http.StatusBadRequest, "Invalid frame amount")
		return
	}

	names, err := frames.ListDir(video.FramesDirPath, app.Logger)
	if err != nil {
		app.Logger.Error("failed to list frames directory", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Error loading frames")
		return
	}

	selected := frames.ByCount(names, amount)
	if len(selected) == 0 {
		app.writeError(w, http.StatusNotFound, "No frames found")
		return
	}

	app.writeJSON(w, http.StatusOK, map[string][]string{"filtered_frames": selected})
}

func (app *App) FrameFileHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	file, err := app.Store.OpenFrame(video.FramesDirPath, name)
	if err != nil {
		app.writeError(w, http.StatusNotFound, "Frame file not found")
		return
	}
	defer file.Close()

	downloadName := video.Title
	if ordinal, err := frames.Ordinal(name); err == nil {
		downloadName = fmt.Sprintf("%s%04d", video.Title, ordinal)
	}

	w.Header().Set("Content-Type", "image/jpg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", downloadName))
	http.ServeContent(w, r, name, time.Time{}, file)
}

func (app *App) FrameInfoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.resolveVideo(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	ordinal, err := frames.Ordinal(name)
	if err != nil {
		app.writeError(w, http.StatusNotFound, "Frame not found")
		return
	}

	frame, err := app.FrameRepo.GetByNumber(r.Context(), video.ID, ordinal)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Frame not found")
			return
		}
		app.Logger.Error("failed to load frame info", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Error loading frame")
		return
	}

	app.writeJSON(w, http.StatusOK, map[string]any{
		"id":            frame.ID,
		"video_id":      frame.VideoID,
		"file_path":     frame.FilePath,
		"frame_number":  frame.FrameNumber,
		"video_time":    frame.Timestamp,
		"video_time_ms": frame.TimestampMS,
	})
}

func (app *App) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")

	if err := app.Pipeline.Delete(r.Context(), videoID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Video_id not found in db")
			return
		}
		app.Logger.Error("video deletion failed", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveVideo loads the video addressed by the id URL parameter, writing a
// 404 and returning ok=false when it does not exist.
func (app *App) resolveVideo(w http.ResponseWriter, r *http.Request) (*models.Video, bool) {
	videoID := chi.URLParam(r, "id")

	video, err := app.VideoRepo.GetVideoByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Video not found")
			return nil, false
		}
		app.Logger.Error("failed to load video", zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "Error loading video")
		return nil, false
	}
	return video, true
}

// filteredByRate applies the rate policy over the persisted frame rows, after
// checking the frames directory still exists on disk.
func (app *App) filteredByRate(r *http.Request, video *models.Video, rate int) ([]frames.Descriptor, error) {
	if info, err := os.Stat(video.FramesDirPath); err != nil || !info.IsDir() {
		return nil, nil
	}

	rows, err := app.FrameRepo.ListByVideo(r.Context(), video.ID)
	if err != nil {
		return nil, err
	}

	selected := frames.ByRate(rows, rate)
	descriptors := make([]frames.Descriptor, 0, len(selected))
	for _, frame := range selected {
		descriptors = append(descriptors, frames.Descriptor{ID: frame.ID, Path: frame.FilePath})
	}
	return descriptors, nil
}
