package bindkit

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the scope-tree-wide settings. It is passed to New once,
// inherited by every child scope, and never read from process-global state.
// The zero value enables just-in-time synthesis (when Recipes is set) and
// circular handles, with no logging, sink, or metrics.
type Config struct {
	// DisallowCircularHandles makes every construction cycle fatal instead
	// of breaking deferred-capable cycles with a Handle.
	DisallowCircularHandles bool

	// DisableJIT forbids just-in-time binding synthesis even when a
	// RecipeSource is configured.
	DisableJIT bool

	// Recipes supplies recipes for identifiers without an explicit binding.
	// Nil disables just-in-time synthesis.
	Recipes RecipeSource

	// Logger receives debug-level events (registrations, JIT syntheses,
	// ban evictions, scope closes). Nil disables logging.
	Logger *slog.Logger

	// Sink observes every structured error recorded during resolution.
	Sink ErrorSink

	// OnProvision is invoked after each successful construction with the
	// binding's key and the fresh instance. Singleton cache hits do not
	// re-fire it.
	OnProvision func(key Key, instance any)

	// Metrics registers the container's collectors when non-nil.
	Metrics prometheus.Registerer
}
