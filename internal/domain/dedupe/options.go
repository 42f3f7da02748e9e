package dedupe

const defaultMaxSize = 10_000

// Option applies a configuration option to the deduper.
type Option func(*lruDeduper)

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize <= 0 the deduper is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *lruDeduper) {
		d.maxSize = maxSize
	}
}
