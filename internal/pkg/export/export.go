// Package export writes derived tables as CSV files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

// ErrNoOutputDir is returned when the export directory does not exist.
var ErrNoOutputDir = errors.New("export directory does not exist")

// TimestampLayout formats the timestamp part of exported file names, down to the microsecond.
const TimestampLayout = "2006-01-02 15-04-05-000000"

// maxSameTime bounds the number of exports named after the same timestamp.
const maxSameTime = 100

// Exporter writes CSV exports into a directory.
type Exporter struct {
	options

	dir string
	l   *slog.Logger
}

// New [Exporter] writing into dir. The directory is never created.
func New(dir string, opts ...Option) *Exporter {
	return &Exporter{
		options: optionsWithDefaults(opts),
		dir:     dir,
		l:       slog.Default().With(slog.String("module", "export")),
	}
}

// Export writes a table into a new timestamped file and returns the path of that file.
func (e *Exporter) Export(t *table.Table) (string, error) {
	file, err := Write(e.dir, t, e.clock())
	if err != nil {
		return "", err
	}

	e.l.Info("table exported", slog.String("file", file), slog.Int("rows", t.Len()))

	return file, nil
}

// FileName is the name of the export file produced at a given time, e.g. "out 2024-03-01 10-20-30-123456.csv".
func FileName(now time.Time) string {
	return fileName(now, 0)
}

// fileName adds a counter to the name of the n-th export produced at the same time,
// e.g. "out 2024-03-01 10-20-30-123456 (1).csv".
func fileName(now time.Time, n int) string {
	if n == 0 {
		return "out " + now.Format(TimestampLayout) + ".csv"
	}

	return fmt.Sprintf("out %s (%d).csv", now.Format(TimestampLayout), n)
}

// Write a table as CSV, with a header row, into a new file of dir named after the current time.
//
// Existing files are never overwritten: when a file named after the same time already exists,
// a counter is added to the name.
func Write(dir string, t *table.Table, now time.Time) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNoOutputDir, dir)
		}

		return "", fmt.Errorf("export directory %q: %w", dir, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", ErrNoOutputDir, dir)
	}

	f, file, err := create(dir, now)
	if err != nil {
		return "", err
	}

	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()

		return "", fmt.Errorf("export file %q: %w", file, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file %q: %w", file, err)
	}

	return file, nil
}

func create(dir string, now time.Time) (*os.File, string, error) {
	for n := range maxSameTime {
		file := filepath.Join(dir, fileName(now, n))
		f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, file, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("creating export file: %w", err)
		}
	}

	return nil, "", fmt.Errorf("creating export file: %d files named after %q already exist", maxSameTime, FileName(now))
}

// WriteCSV writes a table as CSV, with a header row.
func WriteCSV(w io.Writer, t *table.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}

	return nil
}
