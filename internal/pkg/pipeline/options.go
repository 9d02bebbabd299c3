package pipeline

// Option configures a [Pipeline].
type Option func(*options)

type options struct {
	consecutiveRatio bool
}

// WithConsecutiveRatio makes the "Ratio" operation with a "Consecutive" base compute the ratio
// between consecutive values.
//
// By default, this combination computes the difference between consecutive values, like "Difference".
func WithConsecutiveRatio(enabled bool) Option {
	return func(o *options) {
		o.consecutiveRatio = enabled
	}
}

func optionsWithDefaults(opts []Option) options {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	return o
}
