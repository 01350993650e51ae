// Package eventbus provides an in-process fan-out bus used to observe a
// running simulation without coupling agents to their observers.
package eventbus

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

type options struct {
	buffer int
}

// Option configures a TypedBus.
type Option func(*options)

// WithBuffer sets the per-subscriber channel capacity. Values below one are
// ignored.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}
