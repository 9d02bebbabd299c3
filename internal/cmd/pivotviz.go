// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/image"
	"github.com/fredbi/pivotviz/internal/pkg/server"
	"github.com/fredbi/pivotviz/internal/pkg/session"
	"github.com/fredbi/pivotviz/internal/pkg/source"
	"github.com/fredbi/pivotviz/internal/pkg/table"
	"github.com/fredbi/pivotviz/internal/pkg/view"
)

const defaultConfigFile = "pivotviz.yaml"

// Command holds command line flags and executes the pivotviz command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files.
// All other invoked functionalities deal with streams and tables.
type Command struct {
	Config      string
	Format      string
	Environment string
	Widgets     string
	Preset      string
	OutputFile  string
	Png         bool
	Export      bool
	Report      bool
	Serve       string
	Debug       bool
	L           *slog.Logger

	stdout io.Writer
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	cli := &Command{
		L:      slog.Default().With(slog.String("module", "main")),
		stdout: os.Stdout,
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments, then install the logger.
func (c *Command) Parse() error {
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return err
	}

	c.setLogger(os.Stderr)

	return nil
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used. Without any data file,
// the data path of the configuration is used, then the standard input.
func (c *Command) Execute(args ...string) error {
	if args == nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.args()
	}

	cfg, cleanup, err := c.prepareConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	files := c.dataFiles(cfg, args)

	// 1. load the raw table
	t0 := time.Now()
	raw, err := source.New(c.sourceOptions(cfg)...).LoadFiles(files...)
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	c.L.Info("loaded input data", slog.Duration("duration", time.Since(t0)), slog.Any("files", files))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if c.Serve != "" {
		// serve sessions over HTTP until interrupted
		return server.New(cfg, raw,
			server.WithPreset(c.Preset),
			server.WithSourceOptions(source.WithEnvironment(c.Environment)),
		).Start(ctx)
	}

	// 2. apply the view configuration: pipeline and charts are recomputed
	sess, err := c.apply(cfg, raw)
	if err != nil {
		return err
	}

	if c.Report {
		// just want to report about the content of the data
		return c.report(sess)
	}

	if c.Export {
		if _, err := sess.Export(); err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
	}

	// 3. render the page as HTML, possibly to stdout, possibly to temp file
	htmlWriter, htmlCloser, err := c.getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := sess.Page().Render(htmlWriter); err != nil {
		htmlCloser()
		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 4. convert the HTML page to a PNG image, possibly to stdout
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := c.getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	r := image.New(image.WithScreenshot(cfg.Render.Screenshot))
	if err = r.Render(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

func (*Command) args() []string {
	return flag.CommandLine.Args()
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     defaultConfigFile,
		OutputFile: "-",
	}

	flag.StringVar(&c.Config, "config", defaults.Config, "config file")
	flag.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	flag.StringVar(&c.Format, "format", defaults.Format, "input format: csv, bench or bench-json (default: inferred from the file extension)")
	flag.StringVar(&c.Environment, "environment", defaults.Environment, "environment reported by benchmark outputs (default: from the goos, goarch and cpu lines)")
	flag.StringVar(&c.Environment, "e", defaults.Environment, "environment reported by benchmark outputs (shorthand)")
	flag.StringVar(&c.Widgets, "widgets", defaults.Widgets, "widget values, as JSON or URL-escaped JSON")
	flag.StringVar(&c.Widgets, "w", defaults.Widgets, "widget values (shorthand)")
	flag.StringVar(&c.Preset, "preset", defaults.Preset, "preset from the config file")
	flag.StringVar(&c.Preset, "p", defaults.Preset, "preset from the config file (shorthand)")
	flag.StringVar(&c.OutputFile, "output", defaults.OutputFile, "file output or - for standard output")
	flag.StringVar(&c.OutputFile, "o", defaults.OutputFile, "file output or - for standard output (shorthand)")
	flag.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output")
	flag.BoolVar(&c.Export, "export", defaults.Export, "export the derived table as CSV into the export directory")
	flag.BoolVar(&c.Report, "r", defaults.Report, "report data contents and resolved widgets only, no rendering (shorthand)")
	flag.BoolVar(&c.Report, "report", defaults.Report, "report data contents and resolved widgets only, no rendering")
	flag.StringVar(&c.Serve, "serve", defaults.Serve, "serve charts over HTTP on this address (e.g. localhost:8080)")
	flag.BoolVar(&c.Debug, "debug", defaults.Debug, "enable debug logging")
}

func (c *Command) prepareConfig() (cfg *config.Config, cleanup func(), err error) {
	cfg, err = c.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.IsDebug = c.Debug
	if c.Config != "" && cfg.Export.Dir != "" && !filepath.IsAbs(cfg.Export.Dir) {
		// like the data path, the export directory is relative to the config file
		cfg.Export.Dir = filepath.Join(filepath.Dir(c.Config), cfg.Export.Dir)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// loadConfig loads the config file. The embedded defaults are used when the default config file is absent.
func (c *Command) loadConfig() (*config.Config, error) {
	if c.Config == "" || c.Config == defaultConfigFile {
		if _, err := os.Stat(defaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			c.L.Info("no config file found: using defaults", slog.String("config", defaultConfigFile))
			c.Config = ""

			return config.LoadDefaults()
		}
	}

	return config.Load(c.Config)
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	if c.Format != "" {
		format := config.DataFormat(strings.ToLower(c.Format))
		if !format.IsValid() {
			return fmt.Errorf("unsupported format %q (should be one of %v)", c.Format, config.AllDataFormats())
		}
		cfg.Data.Format = format
	}

	if c.Serve != "" {
		cfg.Server.Address = c.Serve
	}

	if c.OutputFile != "" && c.OutputFile != "-" {
		// an outfile is defined: infer the PNG file from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
	}

	if c.Report || c.Serve != "" {
		return nil
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = "-"
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "pivotviz.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

// dataFiles resolves the input files: CLI arguments first, then the data path of the config file,
// relative to the config file, then the standard input.
func (c *Command) dataFiles(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}

	if cfg.Data.Path == "" {
		return []string{"-"}
	}

	if filepath.IsAbs(cfg.Data.Path) || c.Config == "" {
		return []string{cfg.Data.Path}
	}

	return []string{filepath.Join(filepath.Dir(c.Config), cfg.Data.Path)}
}

// apply builds a session and applies the preset and widget values passed as flags.
func (c *Command) apply(cfg *config.Config, raw *table.Table) (*session.Session, error) {
	layer, err := view.DecodeURL(c.Widgets)
	if err != nil {
		return nil, err
	}

	sess := session.New(cfg, raw)
	if c.Preset != "" {
		err = sess.ApplyPreset(c.Preset, layer)
	} else {
		err = sess.Apply(layer)
	}

	if err != nil {
		return nil, fmt.Errorf("applying widgets: %w", err)
	}

	if c.Debug {
		c.L.Debug("resolved view", slog.String("view", spew.Sdump(sess.View())))
	}

	return sess, nil
}

type report struct {
	Data     source.Report  `json:"data"`
	Widgets  map[string]any `json:"widgets"`
	Warnings []string       `json:"warnings,omitempty"`
	Rows     int            `json:"derived_rows"`
	Charts   int            `json:"charts"`
}

// report produces a report that explores the input data and the resolved widgets.
func (c *Command) report(sess *session.Session) error {
	enc := json.NewEncoder(c.output())
	enc.SetIndent("", " ")

	return enc.Encode(report{
		Data:     source.Describe(sess.Raw(), sess.Classification()),
		Widgets:  sess.Widgets().Map(),
		Warnings: sess.View().Warnings,
		Rows:     sess.Derived().Len(),
		Charts:   len(sess.Scenario().Charts),
	})
}

func (c *Command) output() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}

	return c.stdout
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

func (c *Command) getWriter(file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == "-" {
		return c.output(), func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".png"
}

func (c *Command) sourceOptions(cfg *config.Config) []source.Option {
	return []source.Option{
		source.WithFormat(cfg.Data.Format),
		source.WithEnvironment(c.Environment),
	}
}
