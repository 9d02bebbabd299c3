// Package session holds the state of a charting session: the raw table, its classification,
// the widget values and everything derived from them.
//
// Every change of widget values recomputes the view, the derived table and the charts.
package session

import (
	"fmt"
	"log/slog"

	"github.com/fredbi/pivotviz/internal/pkg/chart"
	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/export"
	"github.com/fredbi/pivotviz/internal/pkg/model"
	"github.com/fredbi/pivotviz/internal/pkg/organizer"
	"github.com/fredbi/pivotviz/internal/pkg/pipeline"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

// Session is the state of a single user. It is not safe for concurrent use.
type Session struct {
	options

	cfg      *config.Config
	raw      *table.Table
	cls      table.Classification
	widgets  view.Widgets
	view     *view.View
	derived  *table.Table
	scenario *model.Scenario
	l        *slog.Logger
}

// Controls lists the options offered by every widget, given the current widget values.
type Controls struct {
	Columns map[string][]string `json:"columns"`
	Bases   []string            `json:"adv_col_base"`
	Filters map[string][]string `json:"filters"`
}

// New session over a raw table. No view is applied until [Session.Apply] is called.
func New(cfg *config.Config, raw *table.Table, opts ...Option) *Session {
	s := &Session{
		options:  optionsWithDefaults(opts),
		cfg:      cfg,
		raw:      raw,
		view:     &view.View{},
		derived:  table.Empty(),
		scenario: &model.Scenario{Name: cfg.Render.Title},
		l:        slog.Default().With(slog.String("module", "session")),
	}

	if s.options.cls != nil {
		s.cls = *s.options.cls
	} else {
		s.cls = table.Classify(raw, cfg.Classifier.Thresholds())
	}

	return s
}

// Apply layers of widget values over the configured defaults, then recompute the view,
// the derived table and the charts.
//
// Later layers take precedence. On error, the session is left unchanged.
func (s *Session) Apply(layers ...map[string]any) error {
	all := make([]map[string]any, 0, len(layers)+1)
	all = append(all, s.cfg.Defaults)
	all = append(all, layers...)

	w, err := view.Merge(all...)
	if err != nil {
		return fmt.Errorf("widget values: %w", err)
	}

	return s.update(w)
}

// ApplyPreset applies a preset of the configuration, then the extra layers of widget values.
func (s *Session) ApplyPreset(id string, layers ...map[string]any) error {
	preset, ok := s.cfg.GetPreset(id)
	if !ok {
		return fmt.Errorf("unknown preset %q", id)
	}

	s.l.Info("applying preset", slog.String("preset", preset.ID), slog.String("title", preset.Title))

	return s.Apply(append([]map[string]any{preset.Widgets}, layers...)...)
}

// SetSource switches to another raw table. Every column widget is reset to None, since column
// names from the former table are meaningless for the new one.
func (s *Session) SetSource(raw *table.Table) error {
	previous := s.raw
	previousCls := s.cls

	s.raw = raw
	s.cls = table.Classify(raw, s.cfg.Classifier.Thresholds())

	if err := s.update(s.widgets.ResetColumns()); err != nil {
		s.raw = previous
		s.cls = previousCls

		return err
	}

	s.l.Info("data source switched", slog.Int("rows", raw.Len()), slog.Int("columns", raw.Width()))

	return nil
}

func (s *Session) update(w view.Widgets) error {
	v, err := view.Build(w, s.cls)
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}

	p := pipeline.New(s.cls, pipeline.WithConsecutiveRatio(s.cfg.Pipeline.ConsecutiveRatio))
	derived, err := p.Run(s.raw, v)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	o := organizer.New(organizer.WithName(s.cfg.Render.Title))

	s.widgets = v.Widgets()
	s.view = v
	s.derived = derived
	s.scenario = o.Scenarize(derived, v)

	return nil
}

// Raw table of the session.
func (s *Session) Raw() *table.Table {
	return s.raw
}

// Classification of the raw table.
func (s *Session) Classification() table.Classification {
	return s.cls
}

// Widgets returns the widget values effectively applied.
func (s *Session) Widgets() view.Widgets {
	return s.widgets
}

// View returns the current validated view.
func (s *Session) View() *view.View {
	return s.view
}

// Derived returns the derived table.
func (s *Session) Derived() *table.Table {
	return s.derived
}

// Scenario returns the charts to render.
func (s *Session) Scenario() *model.Scenario {
	return s.scenario
}

// Controls returns the options of the column widgets, of the comparison base widget and of the filters.
func (s *Session) Controls() Controls {
	keys := []string{"x", "x_group", "y", "y_weight", "series", "explode", "explode_group", "adv_col"}
	c := Controls{
		Columns: make(map[string][]string, len(keys)),
		Bases:   view.BaseOptions(s.raw, s.view.AdvCol.Name()),
		Filters: make(map[string][]string, len(s.cls.Filterable)),
	}

	for _, key := range keys {
		c.Columns[key] = view.ColumnOptions(s.widgets, s.cls, key)
	}

	for _, name := range s.cls.Filterable {
		c.Filters[name] = s.cls.FilterLabels(name)
	}

	return c
}

// Page builds the chart page of the current scenario.
func (s *Session) Page() *chart.Page {
	return chart.New(s.cfg, s.scenario).BuildPage()
}

// Export writes the derived table as CSV into the configured export directory.
func (s *Session) Export() (string, error) {
	return export.New(s.cfg.Export.Dir, export.WithClock(s.clock)).Export(s.derived)
}
