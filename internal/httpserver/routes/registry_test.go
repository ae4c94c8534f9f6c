package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
)

func TestGroupsListsEveryRouteFile(t *testing.T) {
	got := map[string]bool{}
	for _, name := range Groups() {
		got[name] = true
	}
	for _, want := range []string{"ops", "catalog", "browse", "bag"} {
		if !got[want] {
			t.Errorf("group %q not registered; have %v", want, Groups())
		}
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	saved := registry
	t.Cleanup(func() { registry = saved })

	registry = nil
	Register("one", func(chi.Router, deps.Deps) {})

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("one", func(chi.Router, deps.Deps) {})
}

func TestRegisterAllAppliesGroupMiddleware(t *testing.T) {
	saved := registry
	t.Cleanup(func() { registry = saved })
	registry = nil

	var seen []string
	tag := func(label string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, label)
				next.ServeHTTP(w, r)
			})
		}
	}
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	Register("plain", func(r chi.Router, _ deps.Deps) { r.Get("/plain", ok) })
	Register("wrapped", func(r chi.Router, _ deps.Deps) { r.Get("/wrapped", ok) }, tag("mw"))

	r := chi.NewRouter()
	RegisterAll(r, deps.Deps{})

	for _, path := range []string{"/plain", "/wrapped"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
	if diff := cmp.Diff([]string{"mw"}, seen); diff != "" {
		t.Errorf("middleware calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"plain", "wrapped"}, Groups()); diff != "" {
		t.Errorf("Groups() (-want +got):\n%s", diff)
	}
}
