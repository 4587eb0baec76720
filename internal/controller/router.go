package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIDMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", c.createRoom)

			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/state", c.getSnapshot)
				r.Post("/users", c.joinRoster)

				r.Group(func(r chi.Router) {
					r.Use(c.authMw)
					r.Patch("/", c.renameRoom)
					r.Delete("/users", c.leaveRoster)
					r.Post("/player-state", c.updatePlayerState)
					r.Post("/playlist", c.addTrack)
					r.Delete("/playlist/{track-id}", c.removeTrack)
					r.Post("/playlist/reorder", c.reorderPlaylist)
					r.Post("/vote-skip", c.voteSkip)
				})
			})
		})
	})

	r.Get("/ws/rooms/{room-id}", c.serveRoomChannel)

	return r
}
