package chart

import "github.com/fredbi/pivotviz/internal/pkg/config"

// Theme constants from go-echarts.
const (
	ThemeWhite = "white"
	ThemeRoma  = "roma"
)

// Option configures a [Chart].
type Option func(*options)

type options struct {
	Theme  string
	Legend config.LegendPosition
	Order  []string
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		if theme == "" {
			return
		}

		c.Theme = theme
	}
}

// WithLegend sets the position of the legend. [config.LegendPositionNone] hides the legend.
func WithLegend(position config.LegendPosition) Option {
	return func(c *options) {
		if position == "" {
			return
		}

		c.Legend = position
	}
}

// WithLegendOrder sets the order of the series names in the legend.
func WithLegendOrder(names []string) Option {
	return func(c *options) {
		c.Order = names
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:  ThemeWhite,
		Legend: config.LegendPositionRight,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
