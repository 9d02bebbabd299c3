package server

import (
	"time"

	"github.com/fredbi/pivotviz/internal/pkg/source"
)

// Option tunes the [Server].
type Option func(*options)

type options struct {
	preset          string
	shutdownTimeout time.Duration
	sourceOptions   []source.Option
}

// WithPreset sets the preset applied when a request does not name one.
func WithPreset(id string) Option {
	return func(o *options) {
		o.preset = id
	}
}

// WithShutdownTimeout sets how long in-flight requests may run once the server is stopped.
//
// Defaults to 5s.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout <= 0 {
			return
		}

		o.shutdownTimeout = timeout
	}
}

// WithSourceOptions sets the options of the loader reading posted data sources.
func WithSourceOptions(opts ...source.Option) Option {
	return func(o *options) {
		o.sourceOptions = append(o.sourceOptions, opts...)
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		shutdownTimeout: 5 * time.Second, //nolint:mnd
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
