package engine

import (
	"time"

	"github.com/n1shantvarma/tapvolt-app/internal/dispatcher"
	"github.com/n1shantvarma/tapvolt-app/internal/heartbeatmon"
)

// Options overrides the Engine Configuration constants enumerated in
// spec.md §3 at construction time. The zero value is not usable directly;
// call DefaultOptions and mutate fields before passing to New, the same
// "construction-time override" pattern internal/heartbeatmon.NewWithConfig
// and internal/dispatcher.NewWithConfig already expose one layer down, so
// tests can shrink timeouts/thresholds without touching production
// defaults.
type Options struct {
	HeartbeatThreshold time.Duration
	HeartbeatCadence   time.Duration
	ActionTimeout      time.Duration
	CompletedWindow    int
	Now                func() time.Time
}

// DefaultOptions returns the production Engine Configuration values.
func DefaultOptions() Options {
	return Options{
		HeartbeatThreshold: heartbeatmon.StalenessThreshold,
		HeartbeatCadence:   heartbeatmon.CheckCadence,
		ActionTimeout:      dispatcher.PerActionTimeout,
		CompletedWindow:    dispatcher.CompletedWindow,
		Now:                time.Now,
	}
}
