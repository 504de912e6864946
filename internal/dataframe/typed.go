package dataframe

import (
	"fmt"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// Float64s returns the named numeric column.
func (df *DataFrame) Float64s(op, name string) (*series.Series[float64], error) {
	return typedColumn[float64](df, op, name, series.Numeric)
}

// Strings returns the named categorical column.
func (df *DataFrame) Strings(op, name string) (*series.Series[string], error) {
	return typedColumn[string](df, op, name, series.Categorical)
}

// Bools returns the named boolean column.
func (df *DataFrame) Bools(op, name string) (*series.Series[bool], error) {
	return typedColumn[bool](df, op, name, series.Boolean)
}

// typedColumn looks up a column and checks its kind. The returned series is
// borrowed from df and must not be released by the caller.
func typedColumn[T series.Element](df *DataFrame, op, name string, want series.Kind) (*series.Series[T], error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError(op, name)
	}
	typed, ok := s.(*series.Series[T])
	if !ok {
		return nil, errors.NewSchemaMismatchError(op, name,
			fmt.Sprintf("expected %s column, got %s", want, s.Kind()))
	}
	return typed, nil
}
