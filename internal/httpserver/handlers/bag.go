package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

type bagMutation struct {
	Disc domain.Disc `json:"disc"`
	Size int         `json:"size"`
}

// GetBag returns the signed-in user's bag with its composition.
func GetBag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, true)
		if err != nil {
			logFailure(d, r, "get bag failed", err)
			response.FromError(w, err)
			return
		}
		response.OK(w, s.Summary())
	}
}

// AddToBag adds the disc in the path to the signed-in user's bag.
func AddToBag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, true)
		if err != nil {
			logFailure(d, r, "add to bag failed", err)
			response.FromError(w, err)
			return
		}

		disc, err := s.AddToBag(r.Context(), chi.URLParam(r, "discID"))
		if err != nil {
			logFailure(d, r, "add to bag failed", err)
			response.FromError(w, err)
			return
		}

		d.Logger.Info("disc added to bag",
			logger.String("user_id", s.UserID()),
			logger.String("disc_id", disc.ID))
		response.Created(w, bagMutation{Disc: disc, Size: len(s.BagDiscs())})
	}
}

// RemoveFromBag removes the disc in the path from the signed-in user's bag.
func RemoveFromBag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, true)
		if err != nil {
			logFailure(d, r, "remove from bag failed", err)
			response.FromError(w, err)
			return
		}

		discID := chi.URLParam(r, "discID")
		if err := s.RemoveFromBag(r.Context(), discID); err != nil {
			logFailure(d, r, "remove from bag failed", err)
			response.FromError(w, err)
			return
		}

		d.Logger.Info("disc removed from bag",
			logger.String("user_id", s.UserID()),
			logger.String("disc_id", discID))
		disc, _ := d.Catalog.Disc(discID)
		response.OK(w, bagMutation{Disc: disc, Size: len(s.BagDiscs())})
	}
}
