package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/bagbuilder/internal/discs"
	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

// session resolves the caller's session. With requireUser the request must
// carry a user id. A bag refetch failure after an identity change is returned
// as the error, alongside the session.
func session(d deps.Deps, r *http.Request, requireUser bool) (*discs.Session, error) {
	id := mw.IdentityFrom(r.Context())
	if requireUser && id.UserID == "" {
		return nil, domain.ErrNoIdentity
	}

	s, err := d.Sessions.Get(r.Context(), id.SessionID, id.UserID)
	if err != nil && !errors.Is(err, domain.ErrNoIdentity) {
		d.Logger.Error("failed to resolve session",
			logger.String("user_id", id.UserID),
			logger.Error(err))
	}
	return s, err
}

// logFailure logs err unless it is an expected client-side outcome.
func logFailure(d deps.Deps, r *http.Request, msg string, err error) {
	var engineErr *domain.EngineError
	var parseErr *domain.ParseError
	switch {
	case errors.Is(err, domain.ErrNoIdentity),
		errors.Is(err, domain.ErrBagFull),
		errors.Is(err, domain.ErrAlreadyInBag),
		errors.Is(err, domain.ErrNotInBag),
		errors.Is(err, domain.ErrDiscNotFound),
		errors.Is(err, domain.ErrAnalysisInProgress),
		errors.Is(err, domain.ErrEngineUnavailable):
		d.Logger.Debug(msg, logger.String("path", r.URL.Path), logger.Error(err))
	case errors.As(err, &engineErr), errors.As(err, &parseErr):
		d.Logger.Warn(msg, logger.String("path", r.URL.Path), logger.Error(err))
	default:
		d.Logger.Error(msg, logger.String("path", r.URL.Path), logger.Error(err))
	}
}
