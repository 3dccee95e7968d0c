package cache

import (
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/mattcknight/cursor-rules-mcp/logging"
)

// Defaults applied by New.
const (
	DefaultTTL          = time.Hour
	DefaultFetchTimeout = 5 * time.Minute
)

// Clock abstracts time for freshness decisions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures a Mirror.
type Option func(*Mirror)

// WithTTL sets how long a fetched mirror is considered fresh. A TTL of zero
// or less makes every EnsureFresh call fetch.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mirror) {
		m.ttl = ttl
	}
}

// WithRef sets the branch, tag or commit checked out after every fetch.
// Empty means the remote's default branch.
func WithRef(ref string) Option {
	return func(m *Mirror) {
		m.ref = ref
	}
}

// WithFetchTimeout bounds a single clone or pull. Zero disables the bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Mirror) {
		m.fetchTimeout = d
	}
}

// WithClock replaces the time source. Tests use a manual clock.
func WithClock(c Clock) Option {
	return func(m *Mirror) {
		m.clock = c
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Mirror) {
		m.logger = l
	}
}

// WithMetrics sets the Prometheus collectors. Defaults to none.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Mirror) {
		m.metrics = metrics
	}
}

// WithFilesystem sets the billy filesystem used for the state file and
// existence checks. Paths are resolved against its root. Defaults to the
// host filesystem rooted at "/".
func WithFilesystem(fs billy.Filesystem) Option {
	return func(m *Mirror) {
		m.fs = fs
	}
}

// WithoutState disables reading and writing the state file.
func WithoutState() Option {
	return func(m *Mirror) {
		m.persist = false
	}
}
