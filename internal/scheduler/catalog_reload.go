package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
)

// fileSettle is how long a watched catalog file must stay quiet before reloading.
const fileSettle = 250 * time.Millisecond

// CatalogLoader is the part of the discs provider the reloader drives.
type CatalogLoader interface {
	Load(ctx context.Context) error
}

// CatalogReloader refreshes the catalog on start, on an interval, on manual
// trigger, and, for file sources, whenever the file changes.
type CatalogReloader struct {
	loader        CatalogLoader
	logger        logger.Logger
	interval      time.Duration
	manualTrigger chan struct{}
	watchPath     string // empty for remote sources

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewCatalogReloader creates a reloader. manualTrigger should be buffered with
// capacity 1 so a pending request can be detected by the sender. watchPath is
// the local catalog file to watch, or "".
func NewCatalogReloader(
	loader CatalogLoader,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
	watchPath string,
) *CatalogReloader {
	return &CatalogReloader{
		loader:        loader,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		watchPath:     watchPath,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start performs the initial load and starts the background loop. A failed
// initial load is logged and left visible through the provider's error state.
func (cr *CatalogReloader) Start(ctx context.Context) error {
	if err := cr.Reload(ctx); err != nil {
		cr.logger.Warn("initial catalog load failed, serving without catalog",
			logger.Error(err))
	}

	var fileEvents <-chan struct{}
	var watcher *fsnotify.Watcher
	if cr.watchPath != "" {
		w, events, err := cr.watch()
		if err != nil {
			cr.logger.Warn("catalog file watch disabled",
				logger.String("path", cr.watchPath),
				logger.Error(err))
		} else {
			watcher, fileEvents = w, events
		}
	}

	cr.started.Store(true)
	go func() {
		defer close(cr.done)
		if watcher != nil {
			defer func() { _ = watcher.Close() }()
		}

		var tick <-chan time.Time
		if cr.interval > 0 {
			ticker := time.NewTicker(cr.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				cr.reloadAndLog(ctx, "periodic")
			case <-cr.manualTrigger:
				cr.logger.Info("manual catalog reload triggered")
				cr.reloadAndLog(ctx, "manual")
			case <-fileEvents:
				cr.logger.Info("catalog file changed", logger.String("path", cr.watchPath))
				cr.reloadAndLog(ctx, "file")
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the background loop and waits for it to exit.
func (cr *CatalogReloader) Stop() {
	cr.stopOnce.Do(func() { close(cr.stopCh) })
	if cr.started.Load() {
		<-cr.done
	}
}

// Reload loads the catalog once.
func (cr *CatalogReloader) Reload(ctx context.Context) error {
	cr.logger.Info("reloading disc catalog")
	return cr.loader.Load(ctx)
}

func (cr *CatalogReloader) reloadAndLog(ctx context.Context, reason string) {
	if err := cr.Reload(ctx); err != nil {
		cr.logger.Error("failed to reload catalog",
			logger.String("reason", reason),
			logger.Error(err))
	}
}

// watch watches the directory of watchPath, since editors and config managers
// usually replace files by rename. Bursts of events are collapsed into one
// signal once the file has been quiet for fileSettle.
func (cr *CatalogReloader) watch() (*fsnotify.Watcher, <-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	target := filepath.Clean(cr.watchPath)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	notify := func() {
		select {
		case out <- struct{}{}:
		default:
		}
	}
	settle := debounce.New(fileSettle)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				settle(notify)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cr.logger.Warn("catalog file watch error", logger.Error(err))
			}
		}
	}()

	cr.logger.Info("watching catalog file", logger.String("path", target))
	return w, out, nil
}
