package io

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
)

// Dataset holds the two input tables with the label and id columns detached.
type Dataset struct {
	Train      *dataframe.DataFrame
	Labels     []float64
	Predict    *dataframe.DataFrame
	TrainIDs   []string
	PredictIDs []string
}

// Release releases both tables.
func (d *Dataset) Release() {
	if d.Train != nil {
		d.Train.Release()
	}
	if d.Predict != nil {
		d.Predict.Release()
	}
}

// ReadCSVFile reads one CSV file into a DataFrame.
func ReadCSVFile(path string, options CSVOptions, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataAccessError("ReadCSV", fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	return readFrom(NewCSVReader(f, options, mem), path)
}

func readFrom(r DataReader, source string) (*dataframe.DataFrame, error) {
	df, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return df, nil
}

// LoadDataset reads the training and prediction files. The label column is
// required in the training file and detached into Labels; in the prediction
// file it is ignored. The id column, when present, is detached from both.
func LoadDataset(trainPath, predictPath, label, idColumn string, mem memory.Allocator) (*Dataset, error) {
	options := DefaultCSVOptions()

	train, err := ReadCSVFile(trainPath, options, mem)
	if err != nil {
		return nil, err
	}
	predict, err := ReadCSVFile(predictPath, options, mem)
	if err != nil {
		train.Release()
		return nil, err
	}

	ds := &Dataset{}
	ds.Labels, err = extractLabels(train, label)
	if err != nil {
		train.Release()
		predict.Release()
		return nil, err
	}

	ds.Train, ds.TrainIDs, err = detach(train, idColumn, label)
	train.Release()
	if err != nil {
		predict.Release()
		return nil, err
	}
	ds.Predict, ds.PredictIDs, err = detach(predict, idColumn, label)
	predict.Release()
	if err != nil {
		ds.Train.Release()
		return nil, err
	}
	return ds, nil
}

func extractLabels(train *dataframe.DataFrame, label string) ([]float64, error) {
	if !train.HasColumn(label) {
		return nil, errors.NewDataAccessError("LoadDataset",
			fmt.Sprintf("training table has no label column %q", label), nil)
	}
	col, err := train.Float64s("LoadDataset", label)
	if err != nil {
		return nil, errors.NewDataAccessError("LoadDataset", "label column is not numeric", err)
	}
	if col.NullN() > 0 {
		return nil, errors.NewDataAccessError("LoadDataset",
			fmt.Sprintf("label column %q has %d missing values", label, col.NullN()), nil)
	}
	return col.Values(), nil
}

// detach drops the id and label columns, returning the id values.
func detach(df *dataframe.DataFrame, idColumn, label string) (*dataframe.DataFrame, []string, error) {
	var ids []string
	var drop []string
	if idColumn != "" {
		if col, ok := df.Column(idColumn); ok {
			ids = make([]string, col.Len())
			for i := range ids {
				ids[i] = col.GetAsString(i)
			}
			drop = append(drop, idColumn)
		}
	}
	if df.HasColumn(label) {
		drop = append(drop, label)
	}
	out, err := df.Drop(drop...)
	if err != nil {
		return nil, nil, err
	}
	return out, ids, nil
}
