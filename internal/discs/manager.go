package discs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/recommend"
)

const (
	// rejoinParallelism caps concurrent bag refetches after a catalog load.
	rejoinParallelism = 8
	// rejoinTimeout bounds the whole re-join pass.
	rejoinTimeout = 30 * time.Second
)

// ManagerOptions configures a SessionManager.
type ManagerOptions struct {
	Provider *Provider
	Store    BagStore
	Cache    RecommendationCache // optional
	Engine   recommend.Engine    // optional; nil disables recommendations

	// SearchQuiet is the debounce period of typed search input.
	SearchQuiet time.Duration
}

// SessionManager owns every live Session.
type SessionManager struct {
	provider    *Provider
	store       BagStore
	cache       RecommendationCache
	engine      recommend.Engine
	searchQuiet time.Duration
	log         logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager and subscribes it to catalog changes so
// every session bag is re-joined once the catalog finishes loading.
func NewSessionManager(opts ManagerOptions, log logger.Logger) *SessionManager {
	m := &SessionManager{
		provider:    opts.Provider,
		store:       opts.Store,
		cache:       opts.Cache,
		engine:      opts.Engine,
		searchQuiet: opts.SearchQuiet,
		log:         log,
		sessions:    make(map[string]*Session),
	}
	opts.Provider.OnCatalogChange(m.onCatalogChange)
	return m
}

// SessionKey resolves the key a request maps to: the session id when present,
// otherwise the user id.
func SessionKey(sessionID, userID string) string {
	if sessionID != "" {
		return "sid:" + sessionID
	}
	if userID != "" {
		return "uid:" + userID
	}
	return ""
}

// Get returns the session for (sessionID, userID), creating it when needed, and
// aligns its identity with userID. The session is returned even when the bag
// refetch triggered by an identity change fails.
func (m *SessionManager) Get(ctx context.Context, sessionID, userID string) (*Session, error) {
	key := SessionKey(sessionID, userID)
	if key == "" {
		return nil, domain.ErrNoIdentity
	}

	m.mu.Lock()
	s, ok := m.sessions[key]
	if !ok {
		s = newSession(key, m)
		m.sessions[key] = s
	}
	m.mu.Unlock()

	s.touch()
	return s, s.SetUser(ctx, userID)
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many were removed.
func (m *SessionManager) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// RefreshAll refetches and re-joins the bag of every signed-in session.
// One failed refetch does not cancel the others; all failures are joined.
func (m *SessionManager) RefreshAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var (
		g     errgroup.Group
		errMu sync.Mutex
		errs  []error
	)
	g.SetLimit(rejoinParallelism)
	for _, s := range sessions {
		userID := s.UserID()
		if userID == "" {
			continue
		}
		g.Go(func() error {
			if err := s.RefreshBag(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (m *SessionManager) onCatalogChange(discs []domain.Disc) {
	if m.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rejoinTimeout)
	defer cancel()

	if err := m.RefreshAll(ctx); err != nil {
		m.log.Warn("bag re-join after catalog load failed", logger.Error(err))
		return
	}
	m.log.Debug("bags re-joined after catalog load", logger.Int("catalog", len(discs)))
}

// Close waits for background analysis runs of live sessions.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Wait()
	}
}
