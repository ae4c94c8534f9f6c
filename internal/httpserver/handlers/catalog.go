package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
)

// catalogStatus is attached to every catalog read so the front-end can show
// the loading indicator and the load error next to whatever is available.
type catalogStatus struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

type discPage struct {
	domain.Page
	Filter domain.FilterState `json:"filter"`
	catalogStatus
}

type facetsResponse struct {
	Categories    []string           `json:"categories"`
	Manufacturers []string           `json:"manufacturers"`
	SpeedMin      float64            `json:"speed_min"`
	SpeedMax      float64            `json:"speed_max"`
	PageSizes     []int              `json:"page_sizes"`
	DefaultFilter domain.FilterState `json:"default_filter"`
	Count         int                `json:"count"`
	LastReload    string             `json:"last_reload,omitempty"`
	catalogStatus
}

func catalogState(d deps.Deps) catalogStatus {
	return catalogStatus{Loading: d.Catalog.Loading(), Error: d.Catalog.Err()}
}

// ListDiscs filters and paginates the catalog from query parameters alone.
func ListDiscs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := domain.ParseFilterState(r.URL.Query())
		page := domain.Paginate(filter.Apply(d.Catalog.Discs()), filter.Page, filter.PerPage)
		filter.Page = page.Page

		response.OK(w, discPage{Page: page, Filter: filter, catalogStatus: catalogState(d)})
	}
}

// GetDisc returns one disc by id.
func GetDisc(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		disc, ok := d.Catalog.Disc(chi.URLParam(r, "id"))
		if !ok {
			response.FromError(w, domain.ErrDiscNotFound)
			return
		}
		response.OK(w, disc)
	}
}

// Facets returns the values the filter controls offer.
func Facets(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := facetsResponse{
			Categories:    d.Catalog.Categories(),
			Manufacturers: d.Catalog.Manufacturers(),
			SpeedMin:      domain.MinSpeed,
			SpeedMax:      domain.MaxSpeed,
			PageSizes:     domain.PageSizes,
			DefaultFilter: domain.DefaultFilterState(),
			Count:         d.Catalog.Count(),
			catalogStatus: catalogState(d),
		}
		if t := d.Catalog.LastReload(); !t.IsZero() {
			resp.LastReload = t.UTC().Format(time.RFC3339)
		}
		response.OK(w, resp)
	}
}
