package io

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// Read reads CSV data with a header row and returns a DataFrame. Columns
// whose non-null cells all parse as numbers become float64 columns, all
// others string columns. A column with no non-null cells is numeric.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.ReuseRecord = false

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.NewDataAccessError("ReadCSV", "parsing CSV", err)
	}
	if len(records) == 0 {
		return nil, errors.NewDataAccessError("ReadCSV", "missing header row", nil)
	}

	headers := records[0]
	dataRows := records[1:]

	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		if seen[h] {
			return nil, errors.NewDataAccessError("ReadCSV", fmt.Sprintf("duplicate column %q in header", h), nil)
		}
		seen[h] = true
	}

	na := make(map[string]bool, len(r.options.NAValues))
	for _, v := range r.options.NAValues {
		na[v] = true
	}

	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for col, header := range headers {
		cells := make([]string, len(dataRows))
		valid := make([]bool, len(dataRows))
		for row, record := range dataRows {
			cells[row] = record[col]
			valid[row] = !na[record[col]]
		}
		seriesList = append(seriesList, r.createSeries(header, cells, valid))
	}

	return dataframe.New(seriesList...), nil
}

// createSeries infers the column type and builds the matching series.
func (r *CSVReader) createSeries(name string, cells []string, valid []bool) dataframe.ISeries {
	if floats, ok := parseFloats(cells, valid); ok {
		return series.NewNullable(name, floats, valid, r.mem)
	}
	values := make([]string, len(cells))
	for i, cell := range cells {
		if valid[i] {
			values[i] = cell
		}
	}
	return series.NewNullable(name, values, valid, r.mem)
}

func parseFloats(cells []string, valid []bool) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		if !valid[i] {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
