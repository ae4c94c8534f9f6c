package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/version"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	DiscsLoaded *int   `json:"discs_loaded,omitempty"`
	LastReload  string `json:"last_reload,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Impact      string `json:"impact,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Build      version.Info               `json:"build"`
	Sessions   int                        `json:"sessions"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"catalog":   catalogComponent(d),
			"bag_store": pingComponent(ctx, d.BagDB, "bag-mutations-disabled"),
			"redis":     pingComponent(ctx, d.Cache, "snapshot-and-recommendation-cache-disabled"),
			"engine":    engineComponent(d),
		}

		response.OK(w, infraResponse{
			Mode:       determineMode(components),
			Build:      d.Build,
			Sessions:   d.Sessions.Len(),
			Components: components,
		})
	}
}

func catalogComponent(d deps.Deps) componentStatus {
	count := d.Catalog.Count()
	lastReload := "never"
	if t := d.Catalog.LastReload(); !t.IsZero() {
		lastReload = t.Format(time.DateTime)
	}

	st := componentStatus{
		OK:          d.Catalog.Loaded() && count > 0,
		DiscsLoaded: &count,
		LastReload:  lastReload,
		Error:       d.Catalog.Err(),
	}
	if d.Catalog.Loading() {
		st.Mode = "loading"
	}
	return st
}

func pingComponent(ctx context.Context, p deps.Pinger, impact string) componentStatus {
	if p == nil {
		return componentStatus{OK: false, Mode: "disabled", Impact: impact}
	}
	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Impact: impact, Error: "unreachable"}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func engineComponent(d deps.Deps) componentStatus {
	if d.EngineName == "" {
		return componentStatus{OK: false, Mode: "disabled", Impact: "recommendations-disabled"}
	}
	return componentStatus{OK: true, Mode: d.EngineName}
}

// determineMode is critical without a catalog or bag store, degraded when an
// optional component is down and optimal otherwise.
func determineMode(components map[string]componentStatus) string {
	if !components["catalog"].OK || !components["bag_store"].OK {
		return "critical"
	}
	for _, name := range []string{"redis", "engine"} {
		if !components[name].OK {
			return "degraded"
		}
	}
	return "optimal"
}
