package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/config"
	"github.com/MrSnakeDoc/bagbuilder/internal/discs"
	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bagbuilder/internal/httpserver/response"
	"github.com/MrSnakeDoc/bagbuilder/internal/index"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/recommend"
	"github.com/MrSnakeDoc/bagbuilder/internal/version"
)

type staticFetcher struct{ discs []domain.Disc }

func (f staticFetcher) Fetch(context.Context) ([]domain.Disc, error) { return f.discs, nil }

// memBag is an in-memory bag store.
type memBag struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.BagEntry
}

func (b *memBag) ListByUser(_ context.Context, userID string) domain.Result[[]domain.BagEntry] {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.BagEntry{}
	for _, e := range b.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return domain.Result[[]domain.BagEntry]{Data: out}
}

func (b *memBag) Insert(_ context.Context, userID, discID string) domain.Result[int64] {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		if e.UserID == userID && e.DiscID == discID {
			return domain.Fail[int64](domain.ErrAlreadyInBag)
		}
	}
	b.nextID++
	b.entries = append(b.entries, domain.BagEntry{ID: b.nextID, UserID: userID, DiscID: discID})
	return domain.Result[int64]{Data: b.nextID}
}

func (b *memBag) Delete(_ context.Context, userID, discID string) domain.Result[int64] {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.UserID == userID && e.DiscID == discID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return domain.Result[int64]{Data: e.ID}
		}
	}
	return domain.Fail[int64](domain.ErrNotInBag)
}

func (b *memBag) Ping(context.Context) error { return nil }

type cannedEngine struct{ text string }

func (e cannedEngine) Name() string                                    { return "canned" }
func (e cannedEngine) Complete(context.Context, string) (string, error) { return e.text, nil }

func catalog(n int) []domain.Disc {
	categories := []string{domain.CategoryPutter, domain.CategoryMidrange, domain.CategoryDistanceDriver}
	out := make([]domain.Disc, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Disc{
			ID:       fmt.Sprintf("d%d", i),
			Name:     fmt.Sprintf("Mold %d", i),
			Brand:    []string{"Innova", "Discraft"}[i%2],
			Category: categories[i%len(categories)],
			Speed:    float64(1 + i%14),
		})
	}
	return out
}

type testServer struct {
	handler  http.Handler
	sessions *discs.SessionManager
	trigger  chan struct{}
}

func newTestServer(t *testing.T, engine recommend.Engine, load bool) *testServer {
	t.Helper()
	log := logger.New("error", false)

	provider := discs.NewProvider(staticFetcher{discs: catalog(30)}, index.NewCatalogIndex(), nil, log)
	if load {
		if err := provider.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}

	bag := &memBag{}
	sessions := discs.NewSessionManager(discs.ManagerOptions{
		Provider: provider,
		Store:    bag,
		Engine:   engine,
	}, log)
	t.Cleanup(sessions.Close)

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Build:           version.Info{Version: "test"},
		Catalog:         provider,
		Sessions:        sessions,
		BagDB:           bag,
		ReloadTrigger:   make(chan struct{}, 1),
		EngineTimeout:   time.Second,
		RecommendBurst:  2,
		RecommendPerMin: 1,
	}
	if engine != nil {
		d.EngineName = engine.Name()
	}

	return &testServer{
		handler:  NewRouter(&config.Config{}, log, d),
		sessions: sessions,
		trigger:  d.ReloadTrigger,
	}
}

func (ts *testServer) do(t *testing.T, method, path, user, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	r.RemoteAddr = "192.0.2.10:5000"
	if user != "" {
		r.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)

	var env response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: body is not an envelope: %v (%s)", method, path, err, w.Body.String())
	}
	return w, env
}

func dataAs[T any](t *testing.T, env response.Response) T {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func TestHealthzAndNotFound(t *testing.T) {
	ts := newTestServer(t, nil, true)

	w, env := ts.do(t, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("healthz status %d", w.Code)
	}
	health := dataAs[struct {
		Status  string `json:"status"`
		Catalog string `json:"catalog"`
		Version string `json:"version"`
	}](t, env)
	if health.Status != "ok" || health.Catalog != "ready" || health.Version != "test" {
		t.Errorf("healthz body = %+v", health)
	}

	w, env = ts.do(t, http.MethodGet, "/nope", "", "")
	if w.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != response.CodeNotFound {
		t.Errorf("unknown route: status %d envelope %+v", w.Code, env.Error)
	}
}

func TestReadyzFollowsCatalog(t *testing.T) {
	ts := newTestServer(t, nil, false)
	if w, _ := ts.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before load: status %d, want 503", w.Code)
	}

	ts = newTestServer(t, nil, true)
	if w, _ := ts.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusOK {
		t.Errorf("readyz after load: status %d, want 200", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, true)

	w, env := ts.do(t, http.MethodGet, "/api/catalog/discs?manufacturer=Innova&per_page=10&page=9", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status %d", w.Code)
	}
	page := dataAs[struct {
		Items      []domain.Disc `json:"items"`
		Page       int           `json:"page"`
		Total      int           `json:"total"`
		TotalPages int           `json:"total_pages"`
	}](t, env)
	if page.Total != 15 || page.TotalPages != 2 || page.Page != 2 || len(page.Items) != 5 {
		t.Errorf("unexpected page: total=%d pages=%d page=%d items=%d", page.Total, page.TotalPages, page.Page, len(page.Items))
	}
	for _, d := range page.Items {
		if d.Brand != "Innova" {
			t.Errorf("filter leaked %s", d.Brand)
		}
	}

	if w, _ := ts.do(t, http.MethodGet, "/api/catalog/discs/d3", "", ""); w.Code != http.StatusOK {
		t.Errorf("get disc status %d", w.Code)
	}
	if w, _ := ts.do(t, http.MethodGet, "/api/catalog/discs/missing", "", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing disc status %d, want 404", w.Code)
	}

	_, env = ts.do(t, http.MethodGet, "/api/catalog/facets", "", "")
	facets := dataAs[struct {
		Categories    []string `json:"categories"`
		Manufacturers []string `json:"manufacturers"`
		PageSizes     []int    `json:"page_sizes"`
	}](t, env)
	if len(facets.Categories) != 3 || len(facets.Manufacturers) != 2 || len(facets.PageSizes) != 3 {
		t.Errorf("unexpected facets: %+v", facets)
	}
}

func TestBagEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, true)

	if w, _ := ts.do(t, http.MethodGet, "/api/bag", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous bag status %d, want 401", w.Code)
	}
	if w, _ := ts.do(t, http.MethodPost, "/api/bag/d1", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous add status %d, want 401", w.Code)
	}

	for i := 1; i <= domain.MaxBagSize; i++ {
		if w, _ := ts.do(t, http.MethodPost, fmt.Sprintf("/api/bag/d%d", i), "alice", ""); w.Code != http.StatusCreated {
			t.Fatalf("add d%d status %d", i, w.Code)
		}
	}

	w, env := ts.do(t, http.MethodPost, "/api/bag/d21", "alice", "")
	if w.Code != http.StatusUnprocessableEntity || env.Error.Code != response.CodeBagFull {
		t.Errorf("21st add: status %d envelope %+v", w.Code, env.Error)
	}
	if w, _ := ts.do(t, http.MethodPost, "/api/bag/d1", "alice", ""); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("add to full bag status %d, want capacity check first", w.Code)
	}

	if w, _ := ts.do(t, http.MethodDelete, "/api/bag/d5", "alice", ""); w.Code != http.StatusOK {
		t.Errorf("remove status %d", w.Code)
	}
	if w, _ := ts.do(t, http.MethodDelete, "/api/bag/d5", "alice", ""); w.Code != http.StatusNotFound {
		t.Errorf("second remove status %d, want 404", w.Code)
	}
	if w, _ := ts.do(t, http.MethodPost, "/api/bag/d1", "alice", ""); w.Code != http.StatusConflict {
		t.Errorf("duplicate add status %d, want 409", w.Code)
	}
	if w, _ := ts.do(t, http.MethodPost, "/api/bag/d21", "alice", ""); w.Code != http.StatusCreated {
		t.Errorf("add after remove status %d", w.Code)
	}

	_, env = ts.do(t, http.MethodGet, "/api/bag", "alice", "")
	summary := dataAs[discs.BagSummary](t, env)
	if summary.Size != domain.MaxBagSize || summary.Remaining != 0 {
		t.Errorf("summary size=%d remaining=%d", summary.Size, summary.Remaining)
	}
}

func TestBrowseEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, true)

	w, env := ts.do(t, http.MethodPatch, "/api/browse?flush=true", "bob", `{"search":"mold 1","per_page":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status %d: %+v", w.Code, env.Error)
	}
	view := dataAs[struct {
		Filter  domain.FilterState `json:"filter"`
		Results struct {
			Total int `json:"total"`
		} `json:"results"`
	}](t, env)
	// "Mold 1" and "Mold 10".."Mold 19"
	if view.Filter.Search != "mold 1" || view.Results.Total != 11 {
		t.Errorf("browse after patch: search=%q total=%d", view.Filter.Search, view.Results.Total)
	}

	if w, _ := ts.do(t, http.MethodPatch, "/api/browse", "bob", `{"bogus":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown field status %d, want 400", w.Code)
	}

	_, env = ts.do(t, http.MethodPost, "/api/browse/reset", "bob", "")
	reset := dataAs[struct {
		Filter domain.FilterState `json:"filter"`
	}](t, env)
	if reset.Filter != domain.DefaultFilterState() {
		t.Errorf("reset filter = %+v", reset.Filter)
	}

	if w, _ := ts.do(t, http.MethodGet, "/api/browse", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("browse without identity status %d, want 401", w.Code)
	}
}

func TestRecommendationEndpoints(t *testing.T) {
	t.Run("engine disabled", func(t *testing.T) {
		ts := newTestServer(t, nil, true)
		w, env := ts.do(t, http.MethodPost, "/api/bag/recommendations", "carol", "")
		if w.Code != http.StatusServiceUnavailable || env.Error.Code != response.CodeServiceUnavailable {
			t.Errorf("status %d envelope %+v", w.Code, env.Error)
		}
	})

	t.Run("analysis round trip", func(t *testing.T) {
		engine := cannedEngine{text: `[{"name":"mold 7","reason":"adds a midrange"},{"name":"Unknown","reason":"x"}]`}
		ts := newTestServer(t, engine, true)

		w, env := ts.do(t, http.MethodPost, "/api/bag/recommendations", "carol", "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("trigger status %d: %+v", w.Code, env.Error)
		}
		ts.sessions.Close()

		_, env = ts.do(t, http.MethodGet, "/api/bag/recommendations", "carol", "")
		got := dataAs[struct {
			Available       bool                           `json:"available"`
			State           string                         `json:"state"`
			Recommendations []domain.MatchedRecommendation `json:"recommendations"`
		}](t, env)
		if !got.Available || got.State != "ready" || len(got.Recommendations) != 1 || got.Recommendations[0].Disc.ID != "d7" {
			t.Errorf("recommendations = %+v", got)
		}
	})
}

func TestReloadTrigger(t *testing.T) {
	ts := newTestServer(t, nil, true)

	if w, _ := ts.do(t, http.MethodPost, "/reload", "", ""); w.Code != http.StatusAccepted {
		t.Errorf("first reload status %d, want 202", w.Code)
	}
	if w, _ := ts.do(t, http.MethodPost, "/reload", "", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("pending reload status %d, want 429", w.Code)
	}
	<-ts.trigger
}
