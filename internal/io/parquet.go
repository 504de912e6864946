package io

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
)

// Write writes the DataFrame to Parquet format
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	record := dataFrameToRecord(df)
	defer record.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(record.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// dataFrameToRecord builds a single Arrow record sharing df's arrays.
func dataFrameToRecord(df *dataframe.DataFrame) arrow.Record {
	names := df.Columns()
	fields := make([]arrow.Field, len(names))
	cols := make([]arrow.Array, len(names))
	for i, name := range names {
		s, _ := df.Column(name)
		fields[i] = arrow.Field{Name: name, Type: s.DataType(), Nullable: true}
		cols[i] = s.Array()
	}
	schema := arrow.NewSchema(fields, nil)
	record := array.NewRecord(schema, cols, int64(df.Len()))
	for _, c := range cols {
		c.Release()
	}
	return record
}

// WriteParquetFile writes df to a new Parquet file at path.
func WriteParquetFile(path string, df *dataframe.DataFrame, options ParquetOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewDataAccessError("WriteParquet", fmt.Sprintf("creating %s", path), err)
	}
	var w DataWriter = NewParquetWriter(f, options)
	if err := w.Write(df); err != nil {
		_ = f.Close()
		return errors.NewDataAccessError("WriteParquet", fmt.Sprintf("writing %s", path), err)
	}
	// the parquet writer closes the sink it was given
	if err := f.Close(); err != nil && !stderrors.Is(err, os.ErrClosed) {
		return errors.NewDataAccessError("WriteParquet", fmt.Sprintf("closing %s", path), err)
	}
	return nil
}
