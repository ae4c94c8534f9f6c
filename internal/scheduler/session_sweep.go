package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

const (
	// DefaultSessionIdleTTL is the idle time after which a session is evicted
	DefaultSessionIdleTTL = 2 * time.Hour
)

// SessionSweepable is the part of the session manager the sweeper drives.
type SessionSweepable interface {
	Sweep(idle time.Duration) int
	Len() int
}

// SessionSweeper evicts browsing sessions that have been idle for too long
type SessionSweeper struct {
	sessions SessionSweepable
	logger   logger.Logger
	interval time.Duration
	idleTTL  time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(
	sessions SessionSweepable,
	log logger.Logger,
	interval time.Duration,
	idleTTL time.Duration,
) *SessionSweeper {
	if idleTTL == 0 {
		idleTTL = DefaultSessionIdleTTL
	}

	return &SessionSweeper{
		sessions: sessions,
		logger:   log,
		interval: interval,
		idleTTL:  idleTTL,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (ss *SessionSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(ss.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ss.Sweep()
			case <-ss.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper
func (ss *SessionSweeper) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopCh) })
}

// Sweep removes idle sessions once and returns how many were evicted
func (ss *SessionSweeper) Sweep() int {
	removed := ss.sessions.Sweep(ss.idleTTL)

	if removed > 0 {
		ss.logger.Info("idle sessions evicted",
			logger.Int("evicted", removed),
			logger.Int("live", ss.sessions.Len()),
			logger.Duration("idle_ttl", ss.idleTTL))
	} else {
		ss.logger.Debug("no idle sessions to evict")
	}

	return removed
}
