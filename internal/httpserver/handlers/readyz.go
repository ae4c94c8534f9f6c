package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
)

const readyProbeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready         bool `json:"ready"`
	CatalogLoaded bool `json:"catalog_loaded"`
	BagStore      bool `json:"bag_store"`
}

// Readyz reports ready once the catalog has loaded and the bag store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()

		resp := readyzResponse{
			CatalogLoaded: d.Catalog.Loaded(),
			BagStore:      d.BagDB != nil && d.BagDB.Ping(ctx) == nil,
		}
		resp.Ready = resp.CatalogLoaded && resp.BagStore

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		response.JSON(w, status, response.Success(resp))
	}
}
