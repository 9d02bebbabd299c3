package session

import (
	"time"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// Option tunes a [Session].
type Option func(*options)

type options struct {
	cls   *table.Classification
	clock func() time.Time
}

// WithClassification reuses the classification of the raw table, e.g. when several sessions
// share the same raw table.
//
// By default, the raw table is classified with the thresholds of the configuration.
func WithClassification(cls table.Classification) Option {
	return func(o *options) {
		o.cls = &cls
	}
}

// WithClock sets the function telling the time of exports.
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
