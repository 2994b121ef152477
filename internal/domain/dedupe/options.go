package dedupe

import "time"

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithRetention sets how long an id stays in the registry after it was last seen.
func WithRetention(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithStore sets the backing store used by Save.
func WithStore(s Store) Option {
	return func(r *Registry) {
		r.store = s
	}
}
