package deps

import (
	"context"
	"net/netip"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/metrics"
	"github.com/MrSnakeDoc/minichannels/internal/minichannels"
	"github.com/MrSnakeDoc/minichannels/internal/notify"
	"github.com/MrSnakeDoc/minichannels/internal/sources/grid"
	"github.com/MrSnakeDoc/minichannels/internal/submission"
	"github.com/MrSnakeDoc/minichannels/internal/wallet"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Sessions      *minichannels.Registry      // per-user directory states
	Submissions   *submission.Repository      // shared submission list
	Grid          *grid.Grid                  // pixel grid provider
	Wallets       *wallet.Registry            // simulated wallets per user
	Notifications *notify.Hub                 // per-user notification feeds
	Metrics       metrics.Provider            // Prometheus or no-op
	Ping          func(context.Context) error // storage readiness probe
	OpsCIDRs      []netip.Prefix              // callers allowed on /metrics and /reload
	TrustProxy    bool                        // true if running behind a trusted reverse proxy
	AdminToken    string                      // bearer token for moderation routes
	RateLimit     RateLimit                   // per-user API throttling
	ReloadTrigger chan struct{}               // Channel to trigger a manual grid reload
}

type RateLimit struct {
	Burst        int
	RefillPerMin int
}
