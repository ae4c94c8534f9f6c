package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/recommend"
)

type analysisStarted struct {
	RunID string          `json:"run_id"`
	State recommend.State `json:"state"`
}

type recommendationsResponse struct {
	Available bool   `json:"available"`
	Engine    string `json:"engine,omitempty"`
	recommend.Snapshot
}

// StartAnalysis triggers a recommendation run for the signed-in user's bag.
// The run continues in the background; poll GetRecommendations for the outcome.
func StartAnalysis(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, true)
		if err != nil {
			logFailure(d, r, "start analysis failed", err)
			response.FromError(w, err)
			return
		}
		if !s.RecommendationsAvailable() {
			response.FromError(w, domain.ErrEngineUnavailable)
			return
		}

		runID, err := s.StartAnalysis(r.Context(), d.EngineTimeout)
		if err != nil {
			logFailure(d, r, "start analysis failed", err)
			response.FromError(w, err)
			return
		}

		d.Logger.Info("bag analysis started",
			logger.String("user_id", s.UserID()),
			logger.String("run_id", runID),
			logger.Int("bag_size", len(s.BagDiscs())))
		response.Accepted(w, analysisStarted{RunID: runID, State: recommend.StateAnalyzing})
	}
}

// GetRecommendations returns the recommendation state and the last matched set.
// A failed run is reported with its failure kind while the previous set is kept.
func GetRecommendations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := session(d, r, true)
		if err != nil {
			logFailure(d, r, "get recommendations failed", err)
			response.FromError(w, err)
			return
		}

		response.OK(w, recommendationsResponse{
			Available: s.RecommendationsAvailable(),
			Engine:    d.EngineName,
			Snapshot:  s.Recommendations(r.Context()),
		})
	}
}
