package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/version"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Catalog       string  `json:"catalog"`
	version.Info
}

// Healthz is the liveness probe. It never fails on catalog state; readiness
// is reported by /readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, healthzResponse{
			Status:        "ok",
			UptimeSeconds: time.Since(start).Seconds(),
			Catalog:       catalogPhase(d),
			Info:          d.Build,
		})
	}
}

// catalogPhase summarizes the catalog as loading, ready, failed or empty.
func catalogPhase(d deps.Deps) string {
	switch {
	case d.Catalog.Loading():
		return "loading"
	case d.Catalog.Loaded() && d.Catalog.Count() > 0:
		return "ready"
	case d.Catalog.Err() != "":
		return "failed"
	default:
		return "empty"
	}
}
