package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/mw"
)

func init() { Register("bag", registerBag) }

func registerBag(r chi.Router, d deps.Deps) {
	analysisLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RecommendBurst,
		RefillPerIPPerMin: d.RecommendPerMin,
		MaxEntries:        10_000,
		IdleTTL:           30 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api/bag", func(r chi.Router) {
		r.Get("/", handlers.GetBag(d))
		r.Get("/recommendations", handlers.GetRecommendations(d))
		r.With(analysisLimit).Post("/recommendations", handlers.StartAnalysis(d))
		r.Post("/{discID}", handlers.AddToBag(d))
		r.Delete("/{discID}", handlers.RemoveFromBag(d))
	})
}
