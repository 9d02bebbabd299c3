package config

import (
	"path/filepath"
	"strings"
)

// DataFormat identifies the format of an input data source.
type DataFormat string

// Supported data formats.
const (
	DataFormatAuto      DataFormat = ""
	DataFormatCSV       DataFormat = "csv"
	DataFormatBench     DataFormat = "bench"
	DataFormatBenchJSON DataFormat = "bench-json"
)

// String returns the format as a plain string.
func (f DataFormat) String() string {
	return string(f)
}

// IsValid reports whether the format is supported. The empty format means "infer from the file name".
func (f DataFormat) IsValid() bool {
	switch f {
	case DataFormatAuto, DataFormatCSV, DataFormatBench, DataFormatBenchJSON:
		return true
	default:
		return false
	}
}

// Resolve infers the format from the file extension when the format is not set.
//
// ".json" files are assumed to be "go test -json" outputs, ".txt" and ".bench" files benchmark text
// outputs, and anything else CSV.
func (f DataFormat) Resolve(file string) DataFormat {
	if f != DataFormatAuto {
		return f
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return DataFormatBenchJSON
	case ".txt", ".bench":
		return DataFormatBench
	default:
		return DataFormatCSV
	}
}

// AllDataFormats returns all explicit data formats.
func AllDataFormats() []DataFormat {
	return []DataFormat{
		DataFormatCSV,
		DataFormatBench,
		DataFormatBenchJSON,
	}
}
