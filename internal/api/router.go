package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every endpoint. Websocket routes sit alongside the plain
// HTTP ones; chi treats them as ordinary GETs until the upgrade happens.
func NewRouter(app *App) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/videos", func(r chi.Router) {
		r.Post("/upload", app.UploadHandler)
		r.Get("/", app.ListVideosHandler)

		r.Get("/ws/frames", app.WSFramesHandler)
		r.Get("/ws/frame_amount", app.WSFrameAmountHandler)
		r.Get("/ws/get_frames_range", app.WSFrameRangeHandler)

		r.Get("/{id}", app.ServeVideoHandler)
		r.Delete("/{id}", app.DeleteVideoHandler)
		r.Get("/{id}/metadata", app.VideoMetadataHandler)
		r.Get("/{id}/make_frames", app.MakeFramesHandler)
		r.Get("/{id}/frames/rate/{rate}", app.FramesByRateHandler)
		r.Get("/{id}/frames/amount/{amount}", app.FramesByAmountHandler)
		r.Get("/{id}/frame/{name}", app.FrameFileHandler)
		r.Get("/{id}/frame_info/{name}", app.FrameInfoHandler)
	})

	return r
}
