package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// cleanupInterval is how often expired sessions and idle workspaces are swept.
	cleanupInterval = 15 * time.Minute

	// badgerGCInterval is how often the Badger value log is compacted.
	badgerGCInterval = 10 * time.Minute
)

// Version is reported by /api/v1/health. Set at build time with
// -ldflags "-X github.com/libraryhub/libraryhub-web/internal/di/providers.Version=...".
var Version = "dev"
