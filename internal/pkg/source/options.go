package source

import "github.com/fredbi/pivotviz/internal/pkg/config"

// Option configures a [Loader].
type Option func(*options)

type options struct {
	format      config.DataFormat
	environment string
}

// WithFormat sets the format of the input files.
//
// By default, the format is inferred from the file extension.
func WithFormat(format config.DataFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithEnvironment overrides the environment reported by benchmark outputs.
func WithEnvironment(environment string) Option {
	return func(o *options) {
		o.environment = environment
	}
}

func optionsWithDefaults(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
