package export

import "time"

// Option tunes the [Exporter].
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock sets the function telling the time of exports.
//
// Defaults to [time.Now].
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock == nil {
			return
		}

		o.clock = clock
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		clock: time.Now,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
