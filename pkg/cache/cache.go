// Package cache stores filter results keyed by input content and options.
// Running the same program through the same filter twice is common (CLI
// retries, repeated HTTP submissions), and every filter is deterministic,
// so a content-addressed byte cache is always safe to serve from.
package cache

import (
	"context"
	"time"
)

// TTLResult bounds how long filter outputs are kept. Inputs are content
// addressed, so staleness is impossible; the TTL only caps disk growth.
const TTLResult = 7 * 24 * time.Hour

// Cache is the backend interface. Get reports a miss with ok=false and a
// nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for filter results.
type Keyer interface {
	// FilterKey derives a key from the filter name, the hash of the input
	// program and the options the filter ran with. opts must be
	// JSON-serializable; equal options yield equal keys.
	FilterKey(filter, inputHash string, opts any) string
}

// DefaultKeyer is the standard key scheme: filter:<name>:<sha256>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FilterKey implements Keyer.
func (k *DefaultKeyer) FilterKey(filter, inputHash string, opts any) string {
	return hashKey("filter:"+filter, inputHash, opts)
}
