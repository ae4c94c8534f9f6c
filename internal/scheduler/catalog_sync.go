package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

// SnapshotSource returns the last saved catalog; a miss is (nil, zero, nil).
type SnapshotSource interface {
	LoadCatalog(ctx context.Context) ([]domain.Disc, time.Time, error)
}

// SnapshotTarget accepts a catalog that has not loaded from its source yet.
type SnapshotTarget interface {
	WarmFromSnapshot(discs []domain.Disc) bool
}

// CatalogSyncer warms the in-memory catalog from the Redis snapshot on startup,
// so the catalog is browsable before the first upstream fetch completes.
type CatalogSyncer struct {
	source SnapshotSource
	target SnapshotTarget
	logger logger.Logger
}

// NewCatalogSyncer creates a new catalog syncer
func NewCatalogSyncer(source SnapshotSource, target SnapshotTarget, log logger.Logger) *CatalogSyncer {
	return &CatalogSyncer{
		source: source,
		target: target,
		logger: log,
	}
}

// Sync loads the snapshot and seeds the catalog. It reports whether the catalog was seeded.
func (cs *CatalogSyncer) Sync(ctx context.Context) (bool, error) {
	cs.logger.Info("warming catalog from redis snapshot")

	discs, savedAt, err := cs.source.LoadCatalog(ctx)
	if err != nil {
		return false, err
	}

	if len(discs) == 0 {
		cs.logger.Info("no catalog snapshot found in redis")
		return false, nil
	}

	if !cs.target.WarmFromSnapshot(discs) {
		cs.logger.Debug("catalog already loaded, snapshot ignored")
		return false, nil
	}

	cs.logger.Info("catalog warmed from redis",
		logger.Int("count", len(discs)),
		logger.Duration("age", time.Since(savedAt)))

	return true, nil
}
