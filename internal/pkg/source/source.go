// Package source loads raw tables from data files.
//
// Supported inputs are CSV files and Go benchmark outputs, either as text or as "go test -json" events.
//
// Missing values are filled: string columns with [Blank], numeric columns with 0.
package source

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fredbi/pivotviz/internal/pkg/config"
	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// Blank replaces missing values in string columns.
const Blank = "{BLANK}"

// Loader reads data files into a [table.Table].
type Loader struct {
	options

	l *slog.Logger
}

// New [Loader] ready to read data files.
func New(opts ...Option) *Loader {
	return &Loader{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "source")),
	}
}

// LoadFiles reads one or several files into a single table. "-" stands for the standard input.
//
// Several files are only supported for benchmark outputs: CSV inputs must come from a single file.
func (s *Loader) LoadFiles(files ...string) (*table.Table, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}

	format := s.format.Resolve(files[0])
	if format == config.DataFormatCSV {
		if len(files) > 1 {
			return nil, fmt.Errorf("CSV input: expected a single file, got %d", len(files))
		}

		var t *table.Table
		err := withReader(files[0], func(r io.Reader) error {
			var err error
			t, err = s.ReadCSV(r)

			return err
		})
		if err != nil {
			return nil, err
		}

		s.l.Info("CSV input loaded", slog.String("file", files[0]), slog.Int("rows", t.Len()), slog.Int("columns", t.Width()))

		return t, nil
	}

	sets := make([]Set, 0, len(files))
	for _, file := range files {
		err := withReader(file, func(r io.Reader) error {
			set, err := s.ParseBenchmarks(r, format == config.DataFormatBenchJSON)
			if err != nil {
				return err
			}

			set.File = file
			sets = append(sets, set)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.l.Info("benchmark input parsed", slog.Int("parsed_files", len(files)))

	return s.BenchmarkTable(sets)
}

// Load reads a single stream into a table. The name of the stream tells the format when it is not set,
// and is reported as the file of benchmark outputs.
func (s *Loader) Load(name string, r io.Reader) (*table.Table, error) {
	format := s.format.Resolve(name)
	if format == config.DataFormatCSV {
		t, err := s.ReadCSV(r)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}

		return t, nil
	}

	set, err := s.ParseBenchmarks(r, format == config.DataFormatBenchJSON)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", name, err)
	}
	set.File = name

	return s.BenchmarkTable([]Set{set})
}

func withReader(file string, fn func(io.Reader) error) error {
	if file == "-" {
		return fn(os.Stdin)
	}

	reader, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("input file %q: %w", file, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	if err := fn(reader); err != nil {
		return fmt.Errorf("input file %q: %w", file, err)
	}

	return nil
}
