package chart

import (
	"log/slog"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/model"
)

// Builder constructs charts from a [model.Scenario].
type Builder struct {
	cfg      *config.Config
	scenario *model.Scenario
	l        *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and a pre-calculated [model.Scenario].
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, scenario *model.Scenario) *Builder {
	return &Builder{
		cfg:      cfg,
		scenario: scenario,
		l:        slog.Default().With(slog.String("module", "chart")),
	}
}

// BuildPage creates a page with one chart per chart of the scenario.
func (b *Builder) BuildPage() *Page {
	title := b.scenario.Name
	if title == "" {
		title = b.cfg.Render.Title
	}
	page := NewPage(title)
	page.Legend = b.scenario.Legend

	order := make([]string, 0, len(b.scenario.Legend))
	for _, entry := range b.scenario.Legend {
		order = append(order, entry.Label)
	}

	for _, c := range b.scenario.Charts {
		if len(c.Series) == 0 {
			b.l.Warn("empty chart skipped", slog.String("chart_id", c.ID))

			continue
		}

		page.AddChart(NewChart(c,
			WithTheme(b.cfg.Render.Theme),
			WithLegend(b.cfg.Render.Legend),
			WithLegendOrder(order),
		))
		b.l.Debug("added chart", slog.String("chart_id", c.ID), slog.String("chart_type", c.ChartType.String()))
	}

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}
