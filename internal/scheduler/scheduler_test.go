package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) Load(context.Context) error {
	l.calls.Add(1)
	return l.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCatalogReloader_InitialAndManual(t *testing.T) {
	log := logger.New("error", false)
	loader := &countingLoader{}
	trigger := make(chan struct{}, 1)

	cr := NewCatalogReloader(loader, log, time.Hour, trigger, "")
	if err := cr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer cr.Stop()

	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("expected initial load, got %d calls", got)
	}

	trigger <- struct{}{}
	waitFor(t, func() bool { return loader.calls.Load() == 2 })
}

func TestCatalogReloader_InitialFailureNotFatal(t *testing.T) {
	log := logger.New("error", false)
	loader := &countingLoader{err: errors.New("catalog request failed: status 503")}

	cr := NewCatalogReloader(loader, log, 0, nil, "")
	if err := cr.Start(context.Background()); err != nil {
		t.Fatalf("Start should not fail on initial load error: %v", err)
	}
	cr.Stop()
	cr.Stop() // idempotent
}

func TestCatalogReloader_Periodic(t *testing.T) {
	log := logger.New("error", false)
	loader := &countingLoader{}

	cr := NewCatalogReloader(loader, log, 10*time.Millisecond, nil, "")
	if err := cr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer cr.Stop()

	waitFor(t, func() bool { return loader.calls.Load() >= 3 })
}

func TestCatalogReloader_FileChange(t *testing.T) {
	log := logger.New("error", false)
	loader := &countingLoader{}

	path := filepath.Join(t.TempDir(), "discs.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cr := NewCatalogReloader(loader, log, 0, nil, path)
	if err := cr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer cr.Stop()

	if err := os.WriteFile(path, []byte(`[{"id":"1"}]`), 0o600); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	waitFor(t, func() bool { return loader.calls.Load() >= 2 })
}

func TestCatalogReloader_StopWithoutStart(t *testing.T) {
	cr := NewCatalogReloader(&countingLoader{}, logger.New("error", false), time.Hour, nil, "")
	cr.Stop()
}

type fakeSnapshots struct {
	discs []domain.Disc
	err   error
}

func (f fakeSnapshots) LoadCatalog(context.Context) ([]domain.Disc, time.Time, error) {
	return f.discs, time.Now().Add(-time.Minute), f.err
}

type fakeTarget struct {
	mu     sync.Mutex
	loaded bool
	seeded []domain.Disc
}

func (f *fakeTarget) WarmFromSnapshot(discs []domain.Disc) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return false
	}
	f.seeded = discs
	return true
}

func TestCatalogSyncer_Sync(t *testing.T) {
	log := logger.New("error", false)
	discs := []domain.Disc{{ID: "1", Name: "Aviar"}, {ID: "2", Name: "Buzzz"}}

	tests := []struct {
		name    string
		source  fakeSnapshots
		loaded  bool
		want    bool
		wantErr bool
	}{
		{name: "seeds empty catalog", source: fakeSnapshots{discs: discs}, want: true},
		{name: "no snapshot", source: fakeSnapshots{}, want: false},
		{name: "catalog already loaded", source: fakeSnapshots{discs: discs}, loaded: true, want: false},
		{name: "redis error", source: fakeSnapshots{err: errors.New("connection refused")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeTarget{loaded: tt.loaded}
			got, err := NewCatalogSyncer(tt.source, target, log).Sync(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Sync() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Sync() = %v, want %v", got, tt.want)
			}
			if tt.want && len(target.seeded) != len(discs) {
				t.Errorf("seeded %d discs, want %d", len(target.seeded), len(discs))
			}
		})
	}
}

type fakeSessions struct {
	live      int
	idle      int
	lastIdle  time.Duration
	sweepRuns atomic.Int32
}

func (f *fakeSessions) Sweep(idle time.Duration) int {
	f.sweepRuns.Add(1)
	f.lastIdle = idle
	removed := f.idle
	f.live -= removed
	f.idle = 0
	return removed
}

func (f *fakeSessions) Len() int { return f.live }

func TestSessionSweeper_Sweep(t *testing.T) {
	log := logger.New("error", false)
	sessions := &fakeSessions{live: 5, idle: 2}

	ss := NewSessionSweeper(sessions, log, time.Hour, 0)

	if removed := ss.Sweep(); removed != 2 {
		t.Errorf("Expected 2 sessions evicted, got %d", removed)
	}
	if sessions.lastIdle != DefaultSessionIdleTTL {
		t.Errorf("Expected default idle TTL %v, got %v", DefaultSessionIdleTTL, sessions.lastIdle)
	}
	if sessions.Len() != 3 {
		t.Errorf("Expected 3 live sessions, got %d", sessions.Len())
	}
	if removed := ss.Sweep(); removed != 0 {
		t.Errorf("Expected nothing left to evict, got %d", removed)
	}
}

func TestSessionSweeper_StartStop(t *testing.T) {
	log := logger.New("error", false)
	sessions := &fakeSessions{}

	ss := NewSessionSweeper(sessions, log, 5*time.Millisecond, time.Minute)
	if err := ss.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, func() bool { return sessions.sweepRuns.Load() >= 2 })
	ss.Stop()
	ss.Stop()
}
