package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/handlers"
)

func init() { Register("browse", registerBrowse) }

func registerBrowse(r chi.Router, d deps.Deps) {
	r.Route("/api/browse", func(r chi.Router) {
		r.Get("/", handlers.GetBrowse(d))
		r.Patch("/", handlers.PatchBrowse(d))
		r.Post("/reset", handlers.ResetBrowse(d))
	})
}
