package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

// Listener is called with the new catalog after every successful replace.
type Listener func(discs []domain.Disc)

// CatalogIndex provides in-memory storage and lookup for the disc catalog.
//
// Loads are bracketed by Begin/Complete. Only the completion carrying the newest
// token is applied; older in-flight loads that resolve late are discarded.
type CatalogIndex struct {
	mu sync.RWMutex

	discs []domain.Disc          // fetch order
	byID  map[string]domain.Disc // ID -> Disc

	// Facets are recomputed on replace only.
	categories    []string
	manufacturers []string

	latest     uint64 // newest token handed out by Begin
	inFlight   int    // started loads not yet completed or superseded
	lastErr    string
	lastReload time.Time
	loaded     bool

	listeners []Listener
}

// NewCatalogIndex creates an empty catalog index
func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{
		discs:         []domain.Disc{},
		byID:          make(map[string]domain.Disc),
		categories:    []string{},
		manufacturers: []string{},
	}
}

// OnChange registers a listener for successful replaces.
func (idx *CatalogIndex) OnChange(fn Listener) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.listeners = append(idx.listeners, fn)
}

// Begin marks a load as started and returns its token.
func (idx *CatalogIndex) Begin() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.latest++
	idx.inFlight++
	return idx.latest
}

// Complete applies the outcome of the load identified by token.
//
// It returns false when a newer load has started since, in which case nothing changes
// except the in-flight bookkeeping. On error the current catalog is kept (empty before
// the first successful load) and the message is recorded.
func (idx *CatalogIndex) Complete(token uint64, discs []domain.Disc, err error) bool {
	idx.mu.Lock()

	if idx.inFlight > 0 {
		idx.inFlight--
	}
	if token != idx.latest {
		idx.mu.Unlock()
		return false
	}
	// The newest load settles the flag even if superseded ones never report back.
	idx.inFlight = 0

	if err != nil {
		idx.lastErr = err.Error()
		idx.mu.Unlock()
		return true
	}

	idx.replaceLocked(discs)
	idx.lastErr = ""
	snapshot, listeners := idx.discs, idx.listeners
	idx.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

// Seed fills an index that has never loaded, e.g. from a cached snapshot at startup.
// It returns false when a load already succeeded or discs is empty.
func (idx *CatalogIndex) Seed(discs []domain.Disc) bool {
	idx.mu.Lock()

	if idx.loaded || len(discs) == 0 {
		idx.mu.Unlock()
		return false
	}

	idx.replaceLocked(discs)
	snapshot, listeners := idx.discs, idx.listeners
	idx.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

func (idx *CatalogIndex) replaceLocked(discs []domain.Disc) {
	ordered := make([]domain.Disc, 0, len(discs))
	byID := make(map[string]domain.Disc, len(discs))
	for _, d := range discs {
		if _, dup := byID[d.ID]; dup {
			continue
		}
		byID[d.ID] = d
		ordered = append(ordered, d)
	}

	idx.discs = ordered
	idx.byID = byID
	idx.categories = domain.DistinctCategories(ordered)
	idx.manufacturers = domain.DistinctManufacturers(ordered)
	idx.lastReload = time.Now()
	idx.loaded = true
}

func notify(listeners []Listener, discs []domain.Disc) {
	for _, fn := range listeners {
		fn(discs)
	}
}

// Discs returns the catalog in fetch order.
// The slice is shared and must not be modified.
func (idx *CatalogIndex) Discs() []domain.Disc {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.discs
}

// Disc retrieves a disc by ID
func (idx *CatalogIndex) Disc(id string) (domain.Disc, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.byID[id]
	return d, ok
}

// Categories returns the distinct categories in first-seen order.
func (idx *CatalogIndex) Categories() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]string(nil), idx.categories...)
}

// Manufacturers returns the distinct brands in first-seen order.
func (idx *CatalogIndex) Manufacturers() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]string(nil), idx.manufacturers...)
}

// Count returns the number of discs in the index
func (idx *CatalogIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.discs)
}

// Loading reports whether a load is in flight.
func (idx *CatalogIndex) Loading() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.inFlight > 0
}

// Loaded reports whether the index has ever been filled.
func (idx *CatalogIndex) Loaded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.loaded
}

// LastError returns the message of the latest failed load, or "" after a success.
func (idx *CatalogIndex) LastError() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastErr
}

// GetLastReload returns the timestamp of the last catalog replace
func (idx *CatalogIndex) GetLastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
