package discs

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

// ViewUpdate is a partial change to a View. Nil fields are left untouched.
type ViewUpdate struct {
	Search       *string  `json:"search,omitempty"`
	Manufacturer *string  `json:"manufacturer,omitempty"`
	Category     *string  `json:"category,omitempty"`
	SpeedLow     *float64 `json:"speed_low,omitempty"`
	SpeedHigh    *float64 `json:"speed_high,omitempty"`
	Page         *int     `json:"page,omitempty"`
	PerPage      *int     `json:"per_page,omitempty"`
}

// View is the filter and pagination state of one browsing session.
//
// Typed search input is committed only after a quiet period with no further
// input; every keystroke restarts the timer. Other fields commit immediately.
type View struct {
	mu sync.Mutex

	state     domain.FilterState // committed
	rawSearch string
	searchGen uint64 // bumped per keystroke and on reset; stale timers compare against it

	quiet     time.Duration
	debounced func(f func())
}

// NewView creates a view in the default state. quiet <= 0 commits search input immediately.
func NewView(quiet time.Duration) *View {
	v := &View{state: domain.DefaultFilterState(), quiet: quiet}
	if quiet > 0 {
		v.debounced = debounce.New(quiet)
	}
	return v
}

// SetSearch records raw search input and schedules its commit.
func (v *View) SetSearch(raw string) {
	v.mu.Lock()
	v.rawSearch = raw
	v.searchGen++
	gen := v.searchGen
	immediate := v.debounced == nil
	if immediate {
		v.state.Search = raw
	}
	v.mu.Unlock()

	if !immediate {
		v.debounced(func() { v.commitSearch(gen) })
	}
}

func (v *View) commitSearch(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.searchGen {
		return
	}
	v.state.Search = v.rawSearch
}

// FlushSearch commits pending search input without waiting for the quiet period.
func (v *View) FlushSearch() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.searchGen++
	v.state.Search = v.rawSearch
}

// PendingSearch returns the raw search input, committed or not.
func (v *View) PendingSearch() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.rawSearch
}

// Apply merges u into the view. Search goes through the debounce; the rest is
// normalized and committed at once.
func (v *View) Apply(u ViewUpdate) {
	v.mu.Lock()
	s := v.state
	if u.Manufacturer != nil {
		s.Manufacturer = *u.Manufacturer
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.SpeedLow != nil {
		s.SpeedLow = *u.SpeedLow
	}
	if u.SpeedHigh != nil {
		s.SpeedHigh = *u.SpeedHigh
	}
	if u.Page != nil {
		s.Page = *u.Page
	}
	if u.PerPage != nil {
		s.PerPage = *u.PerPage
	}
	v.state = s.Normalize()
	v.mu.Unlock()

	if u.Search != nil {
		v.SetSearch(*u.Search)
	}
}

// Reset restores the default state and drops pending search input.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = domain.DefaultFilterState()
	v.rawSearch = ""
	v.searchGen++
}

// State returns the committed filter state.
func (v *View) State() domain.FilterState {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

// Results filters discs with the committed state and paginates them. The clamped
// page is written back so the view never points past the last page.
func (v *View) Results(discs []domain.Disc) domain.Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	page := domain.Paginate(v.state.Apply(discs), v.state.Page, v.state.PerPage)
	v.state.Page = page.Page
	return page
}
