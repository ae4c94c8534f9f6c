package discs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

func TestSessionKey(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		userID    string
		want      string
	}{
		{"session wins", "abc", "alice", "sid:abc"},
		{"user fallback", "", "alice", "uid:alice"},
		{"anonymous", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionKey(tt.sessionID, tt.userID); got != tt.want {
				t.Errorf("SessionKey(%q, %q) = %q, want %q", tt.sessionID, tt.userID, got, tt.want)
			}
		})
	}
}

func TestManagerGet(t *testing.T) {
	f := loadedFixture(t, 3, nil)
	ctx := context.Background()

	if _, err := f.manager.Get(ctx, "", ""); !errors.Is(err, domain.ErrNoIdentity) {
		t.Errorf("Get() without key error = %v, want ErrNoIdentity", err)
	}

	a, _ := f.manager.Get(ctx, "tab", "")
	b, _ := f.manager.Get(ctx, "tab", "")
	if a != b {
		t.Error("same key should return the same session")
	}
	if _, err := f.manager.Get(ctx, "", "zoe"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if f.manager.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.manager.Len())
	}
}

func TestManagerSweep(t *testing.T) {
	f := loadedFixture(t, 3, nil)
	ctx := context.Background()

	old, _ := f.manager.Get(ctx, "old", "")
	old.mu.Lock()
	old.lastSeen = time.Now().Add(-2 * time.Hour)
	old.mu.Unlock()

	if _, err := f.manager.Get(ctx, "fresh", ""); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if removed := f.manager.Sweep(time.Hour); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if f.manager.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.manager.Len())
	}
	if again, _ := f.manager.Get(ctx, "old", ""); again == old {
		t.Error("idle session survived the sweep")
	}
}

func TestManagerRefreshAll(t *testing.T) {
	f := loadedFixture(t, 5, nil)
	ctx := context.Background()

	s, _ := f.manager.Get(ctx, "", "max")
	if len(s.BagDiscs()) != 0 {
		t.Fatal("bag should start empty")
	}

	// Another device added discs behind this session's back.
	f.store.seed("max", "disc-1", "disc-2")

	if err := f.manager.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	if got := len(s.BagDiscs()); got != 2 {
		t.Errorf("bag size after RefreshAll = %d, want 2", got)
	}
}

func TestManagerRefreshAllKeepsGoingAfterFailure(t *testing.T) {
	f := loadedFixture(t, 5, nil)
	ctx := context.Background()

	users := []string{"ann", "bob", "cid", "dee"}
	sessions := make(map[string]*Session, len(users))
	for _, u := range users {
		s, err := f.manager.Get(ctx, "", u)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", u, err)
		}
		sessions[u] = s
		f.store.seed(u, "disc-1", "disc-2")
	}

	f.store.mu.Lock()
	f.store.failFor = "bob"
	f.store.mu.Unlock()

	err := f.manager.RefreshAll(ctx)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("RefreshAll() error = %v, want errStoreDown", err)
	}
	for _, u := range users {
		want := 2
		if u == "bob" {
			want = 0
		}
		if got := len(sessions[u].BagDiscs()); got != want {
			t.Errorf("bag of %s after RefreshAll = %d, want %d", u, got, want)
		}
	}
}

func TestManagerCloseWaitsForAnalysis(t *testing.T) {
	engine := &fakeEngine{text: `[{"name":"Disc 2","reason":"x"}]`, release: make(chan struct{})}
	f := loadedFixture(t, 5, engine)
	ctx := context.Background()

	s, _ := f.manager.Get(ctx, "", "lou")
	if _, err := s.StartAnalysis(ctx, 0); err != nil {
		t.Fatalf("StartAnalysis() error = %v", err)
	}

	closed := make(chan struct{})
	go func() {
		f.manager.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close() returned while analysis was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(engine.release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not return after analysis finished")
	}
	if got, _ := f.cache.LoadRecommendations(ctx, "lou"); len(got) != 1 {
		t.Errorf("cached recommendations after Close = %+v", got)
	}
}
