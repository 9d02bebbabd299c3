package organizer

// Option tunes the [Organizer].
type Option func(*options)

type options struct {
	palette []string
	neutral string
	name    string
}

// WithPalette sets the colors assigned to series values. Series values beyond the
// length of the palette wrap around.
//
// Defaults to [Palette].
func WithPalette(palette []string) Option {
	return func(o *options) {
		if len(palette) == 0 {
			return
		}

		o.palette = palette
	}
}

// WithNeutralColor sets the color used when the chart has no series.
//
// Defaults to [NeutralColor].
func WithNeutralColor(color string) Option {
	return func(o *options) {
		if color == "" {
			return
		}

		o.neutral = color
	}
}

// WithName sets the name of the produced scenarios, i.e. the title of the page.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		palette: Palette,
		neutral: NeutralColor,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
