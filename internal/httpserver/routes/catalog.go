package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/handlers"
)

func init() { Register("catalog", registerCatalog) }

func registerCatalog(r chi.Router, d deps.Deps) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/discs", handlers.ListDiscs(d))
		r.Get("/discs/{id}", handlers.GetDisc(d))
		r.Get("/facets", handlers.Facets(d))
	})
}
