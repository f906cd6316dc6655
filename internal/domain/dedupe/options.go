package dedupe

// Option configures NewInMemoryDeduper.
type Option func(*recordIDs)

// WithMaxSize bounds the number of remembered ids.
// maxSize <= 0 disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(d *recordIDs) {
		d.maxSize = maxSize
	}
}
