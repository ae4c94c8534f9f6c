package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/utils"
)

type reloadResponse struct {
	Triggered bool `json:"triggered"`
}

// Reload queues a manual catalog refresh. Only one request can be pending.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual catalog reload triggered via endpoint",
				logger.String("remote_ip", ip))
			response.Accepted(w, reloadResponse{Triggered: true})
		default:
			d.Logger.Warn("catalog reload already pending",
				logger.String("remote_ip", ip))
			response.RateLimited(w, "A catalog reload is already pending")
		}
	}
}
