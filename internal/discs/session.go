package discs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/recommend"
)

// BagStore is the relational bag collaborator.
type BagStore interface {
	ListByUser(ctx context.Context, userID string) domain.Result[[]domain.BagEntry]
	Insert(ctx context.Context, userID, discID string) domain.Result[int64]
	Delete(ctx context.Context, userID, discID string) domain.Result[int64]
}

// RecommendationCache keeps each user's last successful recommendations.
type RecommendationCache interface {
	SaveRecommendations(ctx context.Context, userID string, recs []domain.MatchedRecommendation) error
	LoadRecommendations(ctx context.Context, userID string) ([]domain.MatchedRecommendation, error)
}

// BagSummary is the bag as shown on the bag page.
type BagSummary struct {
	UserID      string                 `json:"user_id"`
	Discs       []domain.Disc          `json:"discs"`
	Composition []domain.CategoryCount `json:"composition"`
	Size        int                    `json:"size"`
	Stored      int                    `json:"stored"` // counts entries the catalog no longer lists
	Capacity    int                    `json:"capacity"`
	Remaining   int                    `json:"remaining"`
}

// Session is the state of one browser session.
//
// Mutations (identity change, add, remove) are serialized by opMu; mu guards the
// fields and is never held across store or engine calls.
type Session struct {
	key      string
	provider *Provider
	store    BagStore
	cache    RecommendationCache
	engine   recommend.Engine
	log      logger.Logger

	opMu sync.Mutex

	mu         sync.Mutex
	userID     string
	bag        []domain.Disc
	stored     int // entries held by the store, including ones the catalog no longer lists
	bagToken   uint64
	reconciler *recommend.Reconciler
	lastSeen   time.Time

	view *View
	runs sync.WaitGroup
}

func newSession(key string, m *SessionManager) *Session {
	return &Session{
		key:        key,
		provider:   m.provider,
		store:      m.store,
		cache:      m.cache,
		engine:     m.engine,
		log:        m.log.With(logger.String("session", key)),
		bag:        []domain.Disc{},
		reconciler: recommend.NewReconciler(m.engine, m.log),
		lastSeen:   time.Now(),
		view:       NewView(m.searchQuiet),
	}
}

// Key returns the session key.
func (s *Session) Key() string { return s.key }

// View returns the session's filter view.
func (s *Session) View() *View { return s.view }

// UserID returns the signed-in user, or "" for a guest.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the last time the session was used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSeen
}

// SetUser switches the session identity. A change clears the bag and the
// recommendation state, then refetches the bag for the new user.
func (s *Session) SetUser(ctx context.Context, userID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if userID == s.userID {
		s.mu.Unlock()
		return nil
	}
	previous := s.userID
	s.userID = userID
	s.bag = []domain.Disc{}
	s.stored = 0
	s.reconciler = recommend.NewReconciler(s.engine, s.log)
	s.mu.Unlock()

	s.log.Debug("session identity changed",
		logger.String("from", previous),
		logger.String("to", userID))

	if userID == "" {
		return nil
	}
	return s.RefreshBag(ctx)
}

// RefreshBag reloads the bag from the store and joins it against the catalog.
// Entries with no catalog match are dropped. When a newer refresh or an identity
// change happened meanwhile, the result is discarded.
func (s *Session) RefreshBag(ctx context.Context) error {
	s.mu.Lock()
	s.bagToken++
	token := s.bagToken
	userID := s.userID
	if userID == "" {
		s.bag = []domain.Disc{}
		s.stored = 0
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	entries, err := s.store.ListByUser(ctx, userID).Unwrap()
	if err != nil {
		s.log.Error("failed to fetch bag", logger.String("user_id", userID), logger.Error(err))
		return fmt.Errorf("fetch bag: %w", err)
	}

	joined := domain.JoinBag(entries, s.provider.Disc)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.bagToken || userID != s.userID {
		return nil
	}
	s.bag = joined
	s.stored = len(entries)

	if dropped := len(entries) - len(joined); dropped > 0 {
		s.log.Debug("bag entries without catalog match",
			logger.String("user_id", userID),
			logger.Int("dropped", dropped))
	}
	return nil
}

// BagDiscs returns a copy of the materialized bag.
func (s *Session) BagDiscs() []domain.Disc {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Disc{}, s.bag...)
}

// UpdateBagDiscs replaces the cached bag without touching the store, for callers
// that already performed their own add or remove.
func (s *Session) UpdateBagDiscs(list []domain.Disc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orphans := max(s.stored-len(s.bag), 0)
	s.bag = append([]domain.Disc{}, list...)
	s.stored = len(s.bag) + orphans
}

// InBag reports whether discID is in the cached bag.
func (s *Session) InBag(discID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return indexOf(s.bag, discID) >= 0
}

// AddToBag adds discID to the signed-in user's bag.
//
// Without a user nothing happens and domain.ErrNoIdentity is returned. A full bag
// yields domain.ErrBagFull before any store call. Capacity counts every stored
// entry, including discs that have left the catalog. On store failure the local bag is
// left unchanged.
func (s *Session) AddToBag(ctx context.Context, discID string) (domain.Disc, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	userID := s.userID
	size := s.usedLocked()
	present := indexOf(s.bag, discID) >= 0
	s.mu.Unlock()

	if userID == "" {
		return domain.Disc{}, domain.ErrNoIdentity
	}
	if size >= domain.MaxBagSize {
		return domain.Disc{}, domain.ErrBagFull
	}
	disc, ok := s.provider.Disc(discID)
	if !ok {
		return domain.Disc{}, domain.ErrDiscNotFound
	}
	if present {
		return domain.Disc{}, domain.ErrAlreadyInBag
	}

	inserted := s.store.Insert(ctx, userID, discID)
	if err := inserted.Err; err != nil {
		if !errors.Is(err, domain.ErrAlreadyInBag) {
			s.log.Error("failed to add disc to bag",
				logger.String("user_id", userID),
				logger.String("disc_id", discID),
				logger.Error(err))
		}
		return domain.Disc{}, err
	}
	s.log.Debug("bag entry inserted",
		logger.String("user_id", userID),
		logger.String("disc_id", discID),
		logger.Int64("entry_id", inserted.Data))

	s.mu.Lock()
	if s.userID == userID && indexOf(s.bag, discID) < 0 {
		s.bag = append(s.bag, disc)
		s.stored = max(s.stored+1, len(s.bag))
	}
	s.mu.Unlock()

	return disc, nil
}

// RemoveFromBag removes discID from the signed-in user's bag.
// On store failure the local bag is left unchanged.
func (s *Session) RemoveFromBag(ctx context.Context, discID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	userID := s.UserID()
	if userID == "" {
		return domain.ErrNoIdentity
	}

	if err := s.store.Delete(ctx, userID, discID).Err; err != nil {
		if !errors.Is(err, domain.ErrNotInBag) {
			s.log.Error("failed to remove disc from bag",
				logger.String("user_id", userID),
				logger.String("disc_id", discID),
				logger.Error(err))
		}
		return err
	}

	s.mu.Lock()
	if s.userID == userID {
		if i := indexOf(s.bag, discID); i >= 0 {
			s.bag = append(s.bag[:i:i], s.bag[i+1:]...)
		}
		s.stored = max(s.stored-1, len(s.bag))
	}
	s.mu.Unlock()

	return nil
}

// Summary returns the bag with its per-category composition.
func (s *Session) Summary() BagSummary {
	s.mu.Lock()
	userID := s.userID
	bag := append([]domain.Disc{}, s.bag...)
	used := s.usedLocked()
	s.mu.Unlock()

	return BagSummary{
		UserID:      userID,
		Discs:       bag,
		Composition: domain.Composition(bag, s.provider.Categories()),
		Size:        len(bag),
		Stored:      used,
		Capacity:    domain.MaxBagSize,
		Remaining:   max(domain.MaxBagSize-used, 0),
	}
}

// usedLocked is the capacity already taken. Callers hold s.mu.
func (s *Session) usedLocked() int {
	return max(s.stored, len(s.bag))
}

// ─────────────────────────────
// Recommendations
// ─────────────────────────────

// StartAnalysis triggers a recommendation run for the current bag and returns its
// run id. The engine call happens in the background; poll Recommendations.
func (s *Session) StartAnalysis(ctx context.Context, timeout time.Duration) (string, error) {
	s.mu.Lock()
	userID := s.userID
	r := s.reconciler
	bag := append([]domain.Disc{}, s.bag...)
	s.mu.Unlock()

	if userID == "" {
		return "", domain.ErrNoIdentity
	}

	runID, err := r.Begin()
	if err != nil {
		return "", err
	}

	catalog := s.provider.Discs()
	runCtx := context.WithoutCancel(ctx)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()

		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, timeout)
			defer cancel()
		}

		matched, err := r.Run(runCtx, runID, bag, catalog)
		if err != nil || s.cache == nil {
			return
		}
		if err := s.cache.SaveRecommendations(runCtx, userID, matched); err != nil {
			s.log.Warn("failed to cache recommendations", logger.String("user_id", userID), logger.Error(err))
		}
	}()

	return runID, nil
}

// Recommendations returns the recommendation state. A session with no run yet is
// seeded from the cache of the user's last successful run.
func (s *Session) Recommendations(ctx context.Context) recommend.Snapshot {
	s.mu.Lock()
	userID := s.userID
	r := s.reconciler
	s.mu.Unlock()

	snap := r.Snapshot()
	if snap.State != recommend.StateIdle || userID == "" || s.cache == nil {
		return snap
	}

	saved, err := s.cache.LoadRecommendations(ctx, userID)
	if err != nil {
		s.log.Warn("failed to load cached recommendations", logger.String("user_id", userID), logger.Error(err))
		return snap
	}
	r.Restore(saved)
	return r.Snapshot()
}

// RecommendationsAvailable reports whether an engine is configured.
func (s *Session) RecommendationsAvailable() bool { return s.engine != nil }

// Wait blocks until background analysis runs have finished.
func (s *Session) Wait() { s.runs.Wait() }

func indexOf(bag []domain.Disc, discID string) int {
	for i, d := range bag {
		if d.ID == discID {
			return i
		}
	}
	return -1
}
