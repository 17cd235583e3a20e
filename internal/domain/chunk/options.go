package chunk

// Option applies a configuration option to the Decompressor.
type Option func(*Decompressor)

// WithInflateLimit caps the size of a decompressed payload in bytes.
func WithInflateLimit(limit int64) Option {
	return func(d *Decompressor) {
		if limit > 0 {
			d.inflateLimit = limit
		}
	}
}
