package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/discs"
	"github.com/MrSnakeDoc/bagbuilder/internal/logger"
	"github.com/MrSnakeDoc/bagbuilder/internal/version"
)

// Pinger is a backing component whose health can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Build     version.Info

	AllowedHosts []string // Host headers allowed on ops routes
	AllowedCIDRS []string // IPs allowed on ops routes
	TrustProxy   bool     // true if running behind a trusted reverse proxy (e.g., cloudflared)

	Catalog  *discs.Provider       // disc catalog
	Sessions *discs.SessionManager // per-session bag, view and recommendation state
	BagDB    Pinger                // SQLite bag store
	Cache    Pinger                // Redis cache, nil when disabled

	ReloadTrigger chan struct{} // manual catalog reload, buffered (1)

	EngineName      string        // recommendation engine, "" when disabled
	EngineTimeout   time.Duration // per analysis run
	RecommendBurst  int           // per-IP analysis trigger burst
	RecommendPerMin int           // per-IP analysis trigger refill
}
