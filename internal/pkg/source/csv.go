package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/table"
)

var errEmptyCSV = errors.New("empty CSV input: a header row is required")

// ReadCSV reads a CSV document with a header row.
//
// A column is numeric when all its non-empty cells are numbers. Otherwise it is a string column.
func (s *Loader) ReadCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, errEmptyCSV
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows := records[1:]

	columns := make([]*table.Column, 0, len(header))
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, record := range rows {
			cells[i] = record[j]
		}

		columns = append(columns, s.column(name, cells))
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("building table from CSV: %w", err)
	}

	return t, nil
}

// column infers the kind of a column and fills its missing values.
func (s *Loader) column(name string, cells []string) *table.Column {
	numbers := make([]float64, len(cells))
	var missing int

	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			missing++

			continue
		}

		n, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return s.stringColumn(name, cells)
		}

		if math.IsNaN(n) {
			missing++

			continue
		}

		numbers[i] = n
	}

	if missing > 0 {
		s.l.Debug("missing numbers filled with 0", slog.String("column", name), slog.Int("missing", missing))
	}

	return table.NewNumberColumn(name, numbers)
}

func (s *Loader) stringColumn(name string, cells []string) *table.Column {
	values := make([]string, len(cells))
	var missing int

	for i, cell := range cells {
		if strings.TrimSpace(cell) == "" {
			values[i] = Blank
			missing++

			continue
		}

		values[i] = cell
	}

	if missing > 0 {
		s.l.Debug("missing strings filled", slog.String("column", name), slog.Int("missing", missing), slog.String("placeholder", Blank))
	}

	return table.NewStringColumn(name, values)
}
