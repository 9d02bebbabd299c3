package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/fredbi/pivotviz/internal/pkg/table"
	"golang.org/x/tools/benchmark/parse"
)

// Columns of a benchmark table.
const (
	ColumnFile        = "file"
	ColumnEnvironment = "environment"
	ColumnBenchmark   = "benchmark"
	ColumnProcs       = "procs"
	ColumnIterations  = "iterations"
	ColumnNsPerOp     = "ns/op"
	ColumnBytesPerOp  = "B/op"
	ColumnAllocsPerOp = "allocs/op"
	ColumnMBPerS      = "MB/s"
)

// Set wraps [parse.Set] to include file and benchmark environment information.
type Set struct {
	parse.Set

	File        string
	Environment string
}

// metric maps a measurement of a benchmark to a numeric column.
type metric struct {
	column   string
	measured int
	value    func(*parse.Benchmark) float64
}

var metrics = []metric{
	{ColumnNsPerOp, parse.NsPerOp, func(b *parse.Benchmark) float64 { return b.NsPerOp }},
	{ColumnBytesPerOp, parse.AllocedBytesPerOp, func(b *parse.Benchmark) float64 { return float64(b.AllocedBytesPerOp) }},
	{ColumnAllocsPerOp, parse.AllocsPerOp, func(b *parse.Benchmark) float64 { return float64(b.AllocsPerOp) }},
	{ColumnMBPerS, parse.MBPerS, func(b *parse.Benchmark) float64 { return b.MBPerS }},
}

// ParseBenchmarks parses benchmark results, as text or as "go test -json" events.
func (s *Loader) ParseBenchmarks(r io.Reader, isJSON bool) (Set, error) {
	if isJSON {
		return s.parseJSON(r)
	}

	return s.parseText(r)
}

// BenchmarkTable flattens parsed benchmark sets into a table, with one row per benchmark run.
//
// Metric columns are present only when measured by at least one run. Runs that did not measure
// a metric get 0.
func (s *Loader) BenchmarkTable(sets []Set) (*table.Table, error) {
	type run struct {
		set   *Set
		bench *parse.Benchmark
	}

	var runs []run
	measured := 0

	for i := range sets {
		set := &sets[i]
		var benchmarks []*parse.Benchmark
		for _, bs := range set.Set {
			benchmarks = append(benchmarks, bs...)
		}
		slices.SortStableFunc(benchmarks, func(a, b *parse.Benchmark) int { return a.Ord - b.Ord })

		for _, b := range benchmarks {
			runs = append(runs, run{set: set, bench: b})
			measured |= b.Measured
		}
	}

	if len(runs) == 0 {
		s.l.Warn("benchmark set is empty")
	}

	files := make([]string, len(runs))
	environments := make([]string, len(runs))
	names := make([]string, len(runs))
	procs := make([]float64, len(runs))
	iterations := make([]float64, len(runs))

	for i, r := range runs {
		files[i] = stringDefault(r.set.File, Blank)
		environments[i] = stringDefault(s.environment, stringDefault(r.set.Environment, Blank))
		name, p := splitProcs(r.bench.Name)
		names[i] = name
		procs[i] = float64(p)
		iterations[i] = float64(r.bench.N)
	}

	columns := []*table.Column{
		table.NewStringColumn(ColumnFile, files),
		table.NewStringColumn(ColumnEnvironment, environments),
		table.NewStringColumn(ColumnBenchmark, names),
		table.NewNumberColumn(ColumnProcs, procs),
		table.NewNumberColumn(ColumnIterations, iterations),
	}

	for _, m := range metrics {
		if measured&m.measured == 0 {
			continue
		}

		values := make([]float64, len(runs))
		for i, r := range runs {
			if r.bench.Measured&m.measured != 0 {
				values[i] = m.value(r.bench)
			}
		}

		columns = append(columns, table.NewNumberColumn(m.column, values))
	}

	t, err := table.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("building benchmark table: %w", err)
	}

	s.l.Info("benchmark table built", slog.Int("rows", t.Len()), slog.Int("columns", t.Width()))

	return t, nil
}

// splitProcs separates the GOMAXPROCS suffix from a benchmark name, e.g. "BenchmarkRead-16" → ("BenchmarkRead", 16).
func splitProcs(name string) (string, int) {
	idx := strings.LastIndexByte(name, '-')
	if idx < 0 {
		return name, 1
	}

	procs, err := strconv.Atoi(name[idx+1:])
	if err != nil || procs <= 0 {
		return name, 1
	}

	return name[:idx], procs
}

func (s *Loader) parseText(r io.Reader) (Set, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Set{}, fmt.Errorf("reading input: %w", err)
	}

	text := string(content)
	set, err := parse.ParseSet(strings.NewReader(text))
	if err != nil {
		return Set{}, fmt.Errorf("parsing benchmark output: %w", err)
	}

	return Set{
		Set:         set,
		Environment: extractEnvironment(text),
	}, nil
}

// parseJSON parses JSON output from `go test -json -bench`.
// It extracts the Output fields from "output" events and feeds them
// to the standard benchmark parser.
func (s *Loader) parseJSON(r io.Reader) (Set, error) {
	var textOutput strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event testEvent
		if err := json.Unmarshal(line, &event); err != nil { //nolint:musttag // JSON produced uses titleized keys expected by std json/encoding
			s.l.Debug("skipped non-JSON line")

			continue
		}

		if event.Action == "output" && event.Output != "" {
			textOutput.WriteString(event.Output)
		}
	}

	if err := scanner.Err(); err != nil {
		return Set{}, fmt.Errorf("scanning input: %w", err)
	}

	outputText := textOutput.String()
	set, err := parse.ParseSet(strings.NewReader(outputText))
	if err != nil {
		return Set{}, fmt.Errorf("parsing benchmark output: %w", err)
	}

	return Set{
		Set:         set,
		Environment: extractEnvironment(outputText),
	}, nil
}

// extractEnvironment extracts environment information from benchmark output.
// It looks for goos, goarch, and cpu lines and combines them.
func extractEnvironment(text string) string {
	var parts []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "goos: "):
			parts = append(parts, strings.TrimPrefix(line, "goos: "))
		case strings.HasPrefix(line, "goarch: "):
			parts = append(parts, strings.TrimPrefix(line, "goarch: "))
		case strings.HasPrefix(line, "cpu: "):
			cpu := strings.TrimSpace(strings.TrimPrefix(line, "cpu: "))
			parts = append(parts, "cpu: "+cpu)
		}
	}

	return strings.Join(parts, " ")
}

// testEvent represents a single JSON event from `go test -json` output.
// See: https://pkg.go.dev/cmd/test2json
type testEvent struct {
	Time    string
	Action  string
	Package string
	Test    string
	Output  string
	Elapsed float64
}

func stringDefault(in, def string) string {
	if in == "" {
		return def
	}

	return in
}
