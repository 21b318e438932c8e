package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*memoryDeduper)

// WithMaxSize sets the maximum number of ids kept in memory.
// A non-positive value keeps every id.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}
