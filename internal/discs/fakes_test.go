package discs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/index"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

var errStoreDown = errors.New("store unavailable")

// fakeFetcher serves a fixed catalog, optionally blocking until released.
type fakeFetcher struct {
	mu      sync.Mutex
	discs   []domain.Disc
	err     error
	calls   int
	release chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]domain.Disc, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.discs, f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory BagStore with call counting and failure injection.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.BagEntry
	fail    bool
	failFor string // fails ListByUser for this user only
	inserts int
	deletes int
}

func (s *memStore) ListByUser(_ context.Context, userID string) domain.Result[[]domain.BagEntry] {
	return domain.Try(func() ([]domain.BagEntry, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fail || (s.failFor != "" && s.failFor == userID) {
			return nil, errStoreDown
		}
		out := []domain.BagEntry{}
		for _, e := range s.entries {
			if e.UserID == userID {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

func (s *memStore) Insert(_ context.Context, userID, discID string) domain.Result[int64] {
	return domain.Try(func() (int64, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inserts++
		if s.fail {
			return 0, errStoreDown
		}
		for _, e := range s.entries {
			if e.UserID == userID && e.DiscID == discID {
				return 0, domain.ErrAlreadyInBag
			}
		}
		s.nextID++
		s.entries = append(s.entries, domain.BagEntry{ID: s.nextID, UserID: userID, DiscID: discID})
		return s.nextID, nil
	})
}

func (s *memStore) Delete(_ context.Context, userID, discID string) domain.Result[int64] {
	return domain.Try(func() (int64, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.deletes++
		if s.fail {
			return 0, errStoreDown
		}
		for i, e := range s.entries {
			if e.UserID == userID && e.DiscID == discID {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return e.ID, nil
			}
		}
		return 0, domain.ErrNotInBag
	})
}

func (s *memStore) seed(userID string, discIDs ...string) {
	for _, id := range discIDs {
		s.Insert(context.Background(), userID, id)
	}
	s.mu.Lock()
	s.inserts = 0
	s.mu.Unlock()
}

func (s *memStore) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

// memCache is an in-memory RecommendationCache.
type memCache struct {
	mu   sync.Mutex
	recs map[string][]domain.MatchedRecommendation
}

func (c *memCache) SaveRecommendations(_ context.Context, userID string, recs []domain.MatchedRecommendation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recs == nil {
		c.recs = map[string][]domain.MatchedRecommendation{}
	}
	c.recs[userID] = recs
	return nil
}

func (c *memCache) LoadRecommendations(_ context.Context, userID string) ([]domain.MatchedRecommendation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recs[userID], nil
}

// fakeEngine always replies with text, optionally blocking until released.
type fakeEngine struct {
	text    string
	release chan struct{}
}

func (e fakeEngine) Name() string { return "fake" }
func (e fakeEngine) Complete(ctx context.Context, _ string) (string, error) {
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return e.text, nil
}

// bigCatalog returns n discs with ids disc-1..disc-n.
func bigCatalog(n int) []domain.Disc {
	categories := []string{
		domain.CategoryPutter, domain.CategoryApproach, domain.CategoryMidrange,
		domain.CategoryFairwayDriver, domain.CategoryDistanceDriver,
	}
	out := make([]domain.Disc, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Disc{
			ID:       fmt.Sprintf("disc-%d", i),
			Name:     fmt.Sprintf("Disc %d", i),
			Brand:    []string{"Innova", "Discraft", "Axiom"}[i%3],
			Category: categories[i%len(categories)],
			Speed:    float64(1 + i%14),
		})
	}
	return out
}

func quietLogger() logger.Logger { return logger.New("error", false) }

type fixture struct {
	fetcher  *fakeFetcher
	store    *memStore
	cache    *memCache
	provider *Provider
	manager  *SessionManager
}

func newFixture(catalog []domain.Disc, engine *fakeEngine) *fixture {
	f := &fixture{
		fetcher: &fakeFetcher{discs: catalog},
		store:   &memStore{},
		cache:   &memCache{},
	}
	f.provider = NewProvider(f.fetcher, index.NewCatalogIndex(), nil, quietLogger())

	opts := ManagerOptions{Provider: f.provider, Store: f.store, Cache: f.cache}
	if engine != nil {
		opts.Engine = engine
	}
	f.manager = NewSessionManager(opts, quietLogger())
	return f
}
