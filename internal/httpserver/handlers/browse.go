package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/bagbuilder/internal/discs"
	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
)

// maxBrowseBody bounds PATCH /api/browse payloads.
const maxBrowseBody = 4 << 10

type browseResponse struct {
	Filter        domain.FilterState `json:"filter"`
	PendingSearch string             `json:"pending_search"`
	Results       domain.Page        `json:"results"`
	InBag         []string           `json:"in_bag"`
	catalogStatus
}

func browseView(d deps.Deps, s *discs.Session) browseResponse {
	page := s.View().Results(d.Catalog.Discs())

	inBag := make([]string, 0, len(page.Items))
	for _, disc := range page.Items {
		if s.InBag(disc.ID) {
			inBag = append(inBag, disc.ID)
		}
	}

	return browseResponse{
		Filter:        s.View().State(),
		PendingSearch: s.View().PendingSearch(),
		Results:       page,
		InBag:         inBag,
		catalogStatus: catalogState(d),
	}
}

// GetBrowse returns the session's filter view and its current page.
func GetBrowse(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, false)
		if s == nil {
			response.FromError(w, err)
			return
		}
		response.OK(w, browseView(d, s))
	}
}

// PatchBrowse applies a partial filter update. Search text is debounced, so
// the returned results may still reflect the previous term.
func PatchBrowse(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, false)
		if s == nil {
			response.FromError(w, err)
			return
		}

		var u discs.ViewUpdate
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBrowseBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&u); err != nil {
			response.BadRequest(w, "Invalid filter update", err.Error())
			return
		}
		s.View().Apply(u)
		if r.URL.Query().Get("flush") == "true" {
			s.View().FlushSearch()
		}
		response.OK(w, browseView(d, s))
	}
}

// ResetBrowse restores the default filter view.
func ResetBrowse(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, false)
		if s == nil {
			response.FromError(w, err)
			return
		}
		s.View().Reset()
		response.OK(w, browseView(d, s))
	}
}
