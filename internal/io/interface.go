// Package io reads the housing CSV files into DataFrames and writes the
// pipeline's outputs: the prediction CSV and an optional Parquet dump of
// the engineered feature table.
//
// Memory management: readers allocate through the Arrow allocator they are
// given, and returned DataFrames must be released by the caller.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
)

// DefaultBatchSize is the default batch size for Parquet writes
const DefaultBatchSize = 1024

// DataReader defines the interface for reading data from various sources
type DataReader interface {
	// Read reads data from the source and returns a DataFrame
	Read() (*dataframe.DataFrame, error)
}

// DataWriter defines the interface for writing data to various destinations
type DataWriter interface {
	// Write writes the DataFrame to the destination
	Write(df *dataframe.DataFrame) error
}

var (
	_ DataReader = (*CSVReader)(nil)
	_ DataWriter = (*ParquetWriter)(nil)
)

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
	// NAValues are cell contents read as null
	NAValues []string
}

// DefaultNAValues mirrors the missing-value markers used by common CSV
// exports of the housing dataset.
var DefaultNAValues = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "NULL", "null", "#N/A", "<NA>"}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:        ',',
		Comment:          0,
		SkipInitialSpace: false,
		NAValues:         DefaultNAValues,
	}
}

// CSVReader reads CSV data and converts it to DataFrames
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files
	Compression string
	// BatchSize for writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetWriter writes DataFrames to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}
