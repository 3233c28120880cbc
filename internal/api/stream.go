package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/frames"
	"github.com/kdimtricp/framecast/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API has no browser origin of its own; clients connect from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frameMessage is one frame on the wire. Status is SENDING for every frame,
// then a bare FINISHED message closes the stream.
type frameMessage struct {
	Status        string `json:"status"`
	FrameID       string `json:"frame_id,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	AbsTimeMillis int    `json:"abs_time_millisec,omitempty"`
	ImageData     string `json:"image_data,omitempty"`
	Description   string `json:"description,omitempty"`
}

// WSFrameAmountHandler streams frames_amount frames spread evenly across the
// video over a websocket.
func (app *App) WSFrameAmountHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	amount := queryInt(r, "frames_amount", 10)

	video, names, ok := app.streamListing(conn, r)
	if !ok {
		return
	}

	selected := frames.ByCount(names, amount)
	if len(selected) == 0 {
		app.streamError(conn, "No frames found")
		return
	}
	app.sendFrames(r, conn, video, selected)
}

// WSFrameRangeHandler streams the frame with ordinal frames_number plus up to
// frames_range neighbors on each side.
func (app *App) WSFrameRangeHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	number := queryInt(r, "frames_number", 0)
	radius := queryInt(r, "frames_range", 5)

	video, names, ok := app.streamListing(conn, r)
	if !ok {
		return
	}

	window, found := frames.Window(names, number, radius)
	if !found {
		app.Logger.Info("frame window anchored without an exact match",
			zap.String("video_id", video.ID),
			zap.Int("frames_number", number),
		)
	}
	if len(window) == 0 {
		app.streamError(conn, "No frames found")
		return
	}
	app.sendFrames(r, conn, video, window)
}

// WSFramesHandler is the legacy plain-text stream kept for old clients: it
// sends at most one frame, with the JPEG bytes latin1-decoded into the text
// payload, and finishes with the "All images sent." sentinel.
func (app *App) WSFramesHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	videoID := r.URL.Query().Get("video_id")
	video, err := app.VideoRepo.GetVideoByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			conn.WriteMessage(websocket.TextMessage, []byte("this video_id is not found in database."))
		} else {
			app.Logger.Error("failed to load video for stream", zap.Error(err))
			conn.WriteMessage(websocket.TextMessage, []byte("error loading video."))
		}
		return
	}

	rows, err := app.FrameRepo.ListByVideo(r.Context(), video.ID)
	if err != nil {
		app.Logger.Error("failed to list frames for stream", zap.Error(err))
		conn.WriteMessage(websocket.TextMessage, []byte("no frames found."))
		return
	}

	selected := frames.ByRate(rows, 1)
	if len(selected) == 0 {
		conn.WriteMessage(websocket.TextMessage, []byte("no frames found."))
		return
	}
	// Old clients hold the socket open per frame; one frame per connection.
	selected = selected[:1]

	for _, frame := range selected {
		data, err := app.readFrameFile(video, frame.FilePath)
		if err != nil {
			app.Logger.Warn("skipping unreadable frame file",
				zap.String("frame_id", frame.ID), zap.Error(err))
			continue
		}
		msg := frameMessage{
			FileName:      pathBase(frame.FilePath),
			Timestamp:     frame.Timestamp,
			AbsTimeMillis: frame.TimestampMS,
			ImageData:     latin1String(data),
		}
		if err := conn.WriteJSON(msg); err != nil {
			app.Logger.Warn("client dropped during legacy stream", zap.Error(err))
			return
		}
	}

	conn.WriteMessage(websocket.TextMessage, []byte("All images sent."))
}

// streamListing resolves the video named by the video_id query parameter and
// its frame file listing. Any failure is reported to the client as a single
// ERROR message before the socket closes.
func (app *App) streamListing(conn *websocket.Conn, r *http.Request) (*models.Video, []string, bool) {
	videoID := r.URL.Query().Get("video_id")

	video, err := app.VideoRepo.GetVideoByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.streamError(conn, "Video not found")
		} else {
			app.Logger.Error("failed to load video for stream", zap.Error(err))
			app.streamError(conn, "Error loading video")
		}
		return nil, nil, false
	}

	names, err := frames.ListDir(video.FramesDirPath, app.Logger)
	if err != nil {
		app.Logger.Error("failed to list frames directory", zap.Error(err))
		app.streamError(conn, "Error loading frames")
		return nil, nil, false
	}
	return video, names, true
}

// sendFrames pushes each named frame as a SENDING message with its database
// row and base64 image bytes, then the FINISHED terminator. A write failure
// means the client went away; the loop stops without a terminator.
func (app *App) sendFrames(r *http.Request, conn *websocket.Conn, video *models.Video, names []string) {
	for _, name := range names {
		ordinal, err := frames.Ordinal(name)
		if err != nil {
			app.Logger.Warn("skipping frame with malformed name", zap.String("name", name))
			continue
		}

		frame, err := app.FrameRepo.GetByNumber(r.Context(), video.ID, ordinal)
		if err != nil {
			app.Logger.Warn("skipping frame without a database row",
				zap.String("video_id", video.ID),
				zap.Int("frame", ordinal),
				zap.Error(err),
			)
			continue
		}

		data, err := app.readFrame(video, name)
		if err != nil {
			app.Logger.Warn("skipping unreadable frame file",
				zap.String("name", name), zap.Error(err))
			continue
		}

		msg := frameMessage{
			Status:        "SENDING",
			FrameID:       frame.ID,
			FileName:      name,
			Timestamp:     frame.Timestamp,
			AbsTimeMillis: frame.TimestampMS,
			ImageData:     base64.StdEncoding.EncodeToString(data),
		}
		if err := conn.WriteJSON(msg); err != nil {
			app.Logger.Warn("client dropped mid-stream",
				zap.String("video_id", video.ID), zap.Error(err))
			return
		}
	}

	if err := conn.WriteJSON(frameMessage{Status: "FINISHED"}); err != nil {
		app.Logger.Warn("failed to send stream terminator", zap.Error(err))
	}
}

func (app *App) streamError(conn *websocket.Conn, description string) {
	if err := conn.WriteJSON(frameMessage{Status: "ERROR", Description: description}); err != nil {
		app.Logger.Warn("failed to send stream error", zap.Error(err))
	}
}

func (app *App) readFrame(video *models.Video, name string) ([]byte, error) {
	file, err := app.Store.OpenFrame(video.FramesDirPath, name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (app *App) readFrameFile(video *models.Video, path string) ([]byte, error) {
	// Legacy rows store the absolute path; only the base name is safe to open.
	return app.readFrame(video, pathBase(path))
}

func pathBase(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// latin1String maps each byte to the unicode code point of the same value,
// matching how very old clients expect binary image data inside text frames.
func latin1String(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
