package config

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for pivotviz.
type Config struct {
	Name       string
	IsDebug    bool `mapstructure:"-"`
	Data       DataSource
	Classifier Classifier
	Defaults   map[string]any
	Presets    []Preset
	Render     Rendering
	Pipeline   Pipeline
	Export     Export
	Server     Server
	Outputs    Output `mapstructure:"-"`

	presetIndex map[string]Preset
}

// GetPreset retrieves a preset definition by its ID.
func (c Config) GetPreset(id string) (Preset, bool) {
	v, ok := c.presetIndex[id]

	return v, ok
}

// FindPresets returns the presets applicable to a data file, in declaration order.
//
// Presets without a match rule apply to any file.
func (c Config) FindPresets(file string) []Preset {
	var presets []Preset

	for _, p := range c.Presets {
		if p.AppliesTo(file) {
			presets = append(presets, p)
		}
	}

	return presets
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsDebug, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// DataSource tells where the raw table comes from.
type DataSource struct {
	Path   string
	Format DataFormat
}

// Classifier holds the cardinality thresholds used to classify columns.
type Classifier struct {
	FilterableMax int `mapstructure:"filterable_max"`
	SeriesableMax int `mapstructure:"seriesable_max"`
}

// Thresholds converts the classifier settings into [table.Thresholds].
func (c Classifier) Thresholds() table.Thresholds {
	return table.Thresholds{
		FilterableMax: c.FilterableMax,
		SeriesableMax: c.SeriesableMax,
	}
}

// Pipeline tunes the transform pipeline.
type Pipeline struct {
	// ConsecutiveRatio computes an actual ratio between consecutive values for the
	// "Ratio" operation with a "Consecutive" base, instead of a difference.
	ConsecutiveRatio bool `mapstructure:"consecutive_ratio"`
}

// Export configures CSV exports of the derived table.
type Export struct {
	Dir string
}

// Server configures the HTTP front.
type Server struct {
	Address string
}

// Rendering holds chart rendering settings (theme, legend, screenshot).
type Rendering struct {
	Title      string
	Theme      string
	Legend     LegendPosition
	Screenshot Screenshot
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// LegendPosition controls where the chart legend is displayed.
type LegendPosition string

// Supported legend positions.
const (
	LegendPositionNone   LegendPosition = "none"
	LegendPositionBottom LegendPosition = "bottom"
	LegendPositionTop    LegendPosition = "top"
	LegendPositionLeft   LegendPosition = "left"
	LegendPositionRight  LegendPosition = "right"
)

// IsValid reports whether the legend position is supported. The empty position is valid.
func (p LegendPosition) IsValid() bool {
	switch p {
	case "", LegendPositionNone, LegendPositionBottom, LegendPositionTop, LegendPositionLeft, LegendPositionRight:
		return true
	default:
		return false
	}
}

// Output holds the resolved output file paths for HTML and PNG rendering.
type Output struct {
	HTMLFile string
	PngFile  string
	IsTemp   bool
}

// Preset is a named view configuration, expressed as widget values.
//
// A preset may be restricted to the data files matched by a regexp.
type Preset struct {
	ID      string
	Title   string
	Match   string
	Widgets map[string]any

	match *regexp.Regexp
}

// AppliesTo reports whether the preset can be used with the given data file.
func (p Preset) AppliesTo(file string) bool {
	if p.match == nil {
		return true
	}

	return p.match.MatchString(file)
}

// Load a configuration file from the local file system, on top of the embedded defaults.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

// loadDefaults loads the default configuration from embedded FS.
func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	cfg.presetIndex = make(map[string]Preset, len(cfg.Presets))

	if err = cfg.validateData(); err != nil {
		return nil, err
	}

	if err = cfg.validateClassifier(); err != nil {
		return nil, err
	}

	if err = cfg.validateRender(); err != nil {
		return nil, err
	}

	if err = cfg.validatePresets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateData() error {
	if !c.Data.Format.IsValid() {
		return fmt.Errorf("invalid data: unsupported format %q (should be one of %v)", c.Data.Format, AllDataFormats())
	}

	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.FilterableMax < 0 {
		return fmt.Errorf("invalid classifier: filterable_max must be positive: %d", c.Classifier.FilterableMax)
	}

	if c.Classifier.SeriesableMax < 0 {
		return fmt.Errorf("invalid classifier: seriesable_max must be positive: %d", c.Classifier.SeriesableMax)
	}

	return nil
}

func (c *Config) validateRender() error {
	if !c.Render.Legend.IsValid() {
		return fmt.Errorf("invalid render: unsupported legend position %q", c.Render.Legend)
	}

	return nil
}

func (c *Config) validatePresets() error {
	for i, v := range c.Presets {
		if v.ID == "" {
			return fmt.Errorf("invalid presets: empty ID found: presets[%d]", i)
		}
		if _, ok := c.presetIndex[v.ID]; ok {
			return fmt.Errorf("invalid presets: duplicate ID key found: %s", v.ID)
		}
		if v.Title == "" {
			v.Title = Titleize(v.ID)
		}
		if v.Match != "" {
			match, err := regexp.Compile(v.Match)
			if err != nil {
				return fmt.Errorf("invalid regexp[preset %d - %s]: %w", i, v.ID, err)
			}
			v.match = match
		}
		if len(v.Widgets) == 0 {
			return fmt.Errorf("invalid preset: at least 1 widget value must be set. presets.%s.widgets", v.ID)
		}

		c.Presets[i] = v
		c.presetIndex[v.ID] = v
	}

	return nil
}

type str interface {
	~string
}

// Titleize turns an identifier such as a column name into a human-readable title.
//
// Underscores and dashes are replaced by blanks and words are capitalized.
func Titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}
