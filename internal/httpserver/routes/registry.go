package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []group

// Register adds a named route group with optional group-wide middlewares.
// Names must be unique; a duplicate is a programming error and panics at init.
func Register(name string, reg Registrar, mws ...Middleware) {
	for _, g := range registry {
		if g.name == name {
			panic(fmt.Sprintf("routes: group %q registered twice", name))
		}
	}
	registry = append(registry, group{name: name, reg: reg, mws: mws})
}

// Groups lists the registered group names in mount order.
func Groups() []string {
	names := make([]string, 0, len(registry))
	for _, g := range registry {
		names = append(names, g.name)
	}
	return names
}

// RegisterAll mounts every registered route group on r. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range registry {
		if len(g.mws) == 0 {
			g.reg(r, d)
		} else {
			g.reg(r.With(g.mws...), d)
		}
		if d.Logger != nil {
			d.Logger.Debug("route group mounted", logger.String("group", g.name))
		}
	}
}
