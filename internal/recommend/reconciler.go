package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

// State is the position of a Reconciler in its analysis lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

var states = [...]State{StateIdle, StateAnalyzing, StateReady, StateFailed}

const (
	stIdle int32 = iota
	stAnalyzing
	stReady
	stFailed
)

// Failure kinds reported in a Snapshot.
const (
	FailureEngine = "engine"
	FailureParse  = "parse"
)

// errNotStarted is returned by Run when Begin was not called first.
var errNotStarted = errors.New("analysis run was not started")

// Snapshot is a point-in-time view of a Reconciler.
type Snapshot struct {
	State           State                          `json:"state"`
	RunID           string                         `json:"run_id,omitempty"`
	Recommendations []domain.MatchedRecommendation `json:"recommendations"`
	Suggested       int                            `json:"suggested"`
	Failure         string                         `json:"failure,omitempty"`
	UpdatedAt       time.Time                      `json:"updated_at,omitzero"`
	Err             error                          `json:"-"`
}

// Reconciler runs the idle -> analyzing -> ready|failed state machine for one session.
//
// A failed run keeps the recommendations of the last successful one.
type Reconciler struct {
	engine Engine
	log    logger.Logger

	state atomic.Int32

	mu        sync.RWMutex
	runID     string
	recs      []domain.MatchedRecommendation
	suggested int
	lastErr   error
	updatedAt time.Time
}

// NewReconciler creates an idle reconciler. A nil engine makes every run fail
// with domain.ErrEngineUnavailable.
func NewReconciler(engine Engine, log logger.Logger) *Reconciler {
	return &Reconciler{engine: engine, log: log}
}

// Available reports whether an engine is configured.
func (r *Reconciler) Available() bool { return r.engine != nil }

// Begin moves the reconciler into analyzing and returns the run id.
// A second Begin before the run completes returns domain.ErrAnalysisInProgress.
func (r *Reconciler) Begin() (string, error) {
	if r.engine == nil {
		return "", domain.ErrEngineUnavailable
	}

	for {
		cur := r.state.Load()
		if cur == stAnalyzing {
			return "", domain.ErrAnalysisInProgress
		}
		if r.state.CompareAndSwap(cur, stAnalyzing) {
			break
		}
	}

	runID := uuid.NewString()
	r.mu.Lock()
	r.runID = runID
	r.mu.Unlock()
	return runID, nil
}

// Run completes the analysis started by Begin.
// It returns *domain.EngineError on transport or engine failures and *domain.ParseError
// when the reply breaks the output contract.
func (r *Reconciler) Run(ctx context.Context, runID string, bag, catalog []domain.Disc) ([]domain.MatchedRecommendation, error) {
	if r.state.Load() != stAnalyzing {
		return nil, errNotStarted
	}

	log := r.log.With(logger.String("run_id", runID), logger.String("engine", r.engine.Name()))
	start := time.Now()
	log.Info("analysis started", logger.Int("bag_size", len(bag)))

	prompt, err := BuildPrompt(bag)
	if err != nil {
		return nil, r.fail(log, &domain.EngineError{Err: err})
	}

	text, err := r.engine.Complete(ctx, prompt)
	if err != nil {
		return nil, r.fail(log, &domain.EngineError{Err: err})
	}

	recs, err := domain.ParseRecommendations(text)
	if err != nil {
		log.Debug("unparsable engine output", logger.String("raw", truncate(text, 512)))
		return nil, r.fail(log, err)
	}

	matched := domain.MatchRecommendations(recs, catalog)

	r.mu.Lock()
	r.recs = matched
	r.suggested = len(recs)
	r.lastErr = nil
	r.updatedAt = time.Now()
	r.mu.Unlock()
	r.state.Store(stReady)

	log.Info("analysis finished",
		logger.Int("suggested", len(recs)),
		logger.Int("matched", len(matched)),
		logger.Duration("duration", time.Since(start)))

	return matched, nil
}

// Analyze is Begin followed by Run.
func (r *Reconciler) Analyze(ctx context.Context, bag, catalog []domain.Disc) ([]domain.MatchedRecommendation, error) {
	runID, err := r.Begin()
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, runID, bag, catalog)
}

func (r *Reconciler) fail(log logger.Logger, err error) error {
	r.mu.Lock()
	r.lastErr = err
	r.updatedAt = time.Now()
	r.mu.Unlock()
	r.state.Store(stFailed)

	log.Warn("analysis failed", logger.String("failure", FailureKind(err)), logger.Error(err))
	return err
}

// Restore installs previously saved recommendations into an idle reconciler.
func (r *Reconciler) Restore(recs []domain.MatchedRecommendation) bool {
	if len(recs) == 0 || !r.state.CompareAndSwap(stIdle, stReady) {
		return false
	}

	r.mu.Lock()
	r.recs = append([]domain.MatchedRecommendation(nil), recs...)
	r.suggested = len(recs)
	r.mu.Unlock()
	return true
}

// Snapshot returns the current state and recommendations.
func (r *Reconciler) Snapshot() Snapshot {
	st := states[r.state.Load()]

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		State:           st,
		RunID:           r.runID,
		Recommendations: append([]domain.MatchedRecommendation{}, r.recs...),
		Suggested:       r.suggested,
		UpdatedAt:       r.updatedAt,
	}
	if st == StateFailed && r.lastErr != nil {
		snap.Err = r.lastErr
		snap.Failure = FailureKind(r.lastErr)
	}
	return snap
}

// FailureKind classifies a run error as FailureParse or FailureEngine.
func FailureKind(err error) string {
	var pe *domain.ParseError
	if errors.As(err, &pe) {
		return FailureParse
	}
	return FailureEngine
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
