// Package discs owns the catalog and per-session state: user identity, bag, filter view
// and recommendation state.
package discs

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/index"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/sources/discit"
)

// SnapshotStore persists the catalog for warm starts.
type SnapshotStore interface {
	SaveCatalog(ctx context.Context, discs []domain.Disc) error
}

// snapshotTimeout bounds the best-effort snapshot write.
const snapshotTimeout = 5 * time.Second

// Provider loads the catalog and answers catalog queries.
type Provider struct {
	fetcher   discit.Fetcher
	index     *index.CatalogIndex
	snapshots SnapshotStore
	log       logger.Logger

	group singleflight.Group
}

// NewProvider creates a provider. snapshots may be nil.
func NewProvider(fetcher discit.Fetcher, idx *index.CatalogIndex, snapshots SnapshotStore, log logger.Logger) *Provider {
	return &Provider{
		fetcher:   fetcher,
		index:     idx,
		snapshots: snapshots,
		log:       log,
	}
}

// Load fetches the whole catalog and replaces the index contents.
//
// Overlapping callers share one outbound request. Each call still takes its own
// index token, so only the newest caller's completion is applied.
func (p *Provider) Load(ctx context.Context) error {
	token := p.index.Begin()
	start := time.Now()

	v, err, shared := p.group.Do("catalog", func() (any, error) {
		// Detached so one caller going away does not fail the others.
		fetched, err := p.fetcher.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.saveSnapshot(ctx, fetched)
		return fetched, nil
	})

	var fetched []domain.Disc
	if err == nil {
		fetched = v.([]domain.Disc)
	}

	applied := p.index.Complete(token, fetched, err)
	if err != nil {
		p.log.Error("catalog load failed",
			logger.Error(err),
			logger.Uint64("token", token),
			logger.Bool("applied", applied))
		return fmt.Errorf("catalog load: %w", err)
	}

	p.log.Info("catalog loaded",
		logger.Int("discs", len(fetched)),
		logger.Uint64("token", token),
		logger.Bool("applied", applied),
		logger.Bool("shared", shared),
		logger.Duration("duration", time.Since(start)))
	return nil
}

func (p *Provider) saveSnapshot(ctx context.Context, discs []domain.Disc) {
	if p.snapshots == nil || len(discs) == 0 {
		return
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	if err := p.snapshots.SaveCatalog(sctx, discs); err != nil {
		p.log.Warn("failed to save catalog snapshot", logger.Error(err))
	}
}

// WarmFromSnapshot seeds an index that has not loaded yet.
func (p *Provider) WarmFromSnapshot(discs []domain.Disc) bool {
	return p.index.Seed(discs)
}

// OnCatalogChange registers fn for successful catalog replaces.
func (p *Provider) OnCatalogChange(fn index.Listener) { p.index.OnChange(fn) }

// Discs returns the catalog in fetch order. The slice must not be modified.
func (p *Provider) Discs() []domain.Disc { return p.index.Discs() }

// Disc looks up one disc by id.
func (p *Provider) Disc(id string) (domain.Disc, bool) { return p.index.Disc(id) }

// Categories returns the distinct categories of the loaded catalog.
func (p *Provider) Categories() []string { return p.index.Categories() }

// Manufacturers returns the distinct brands of the loaded catalog.
func (p *Provider) Manufacturers() []string { return p.index.Manufacturers() }

// Loading reports whether a load is in flight.
func (p *Provider) Loading() bool { return p.index.Loading() }

// Loaded reports whether a catalog is available.
func (p *Provider) Loaded() bool { return p.index.Loaded() }

// Err returns the message of the last failed load, or "".
func (p *Provider) Err() string { return p.index.LastError() }

// LastReload returns when the catalog was last replaced.
func (p *Provider) LastReload() time.Time { return p.index.GetLastReload() }

// Count returns the catalog size.
func (p *Provider) Count() int { return p.index.Count() }
