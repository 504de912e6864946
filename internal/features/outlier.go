// Package features turns the raw housing tables into a model-ready design:
// outlier removal, train/predict merging, imputation, derived features and
// one-hot encoding. Every function returns a new DataFrame and leaves its
// input untouched; callers release both.
package features

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/validation"
)

// RemoveOutliers drops the rows whose column value is above threshold,
// together with their labels. Null values are never outliers and the
// relative order of the remaining rows is kept.
func RemoveOutliers(
	df *dataframe.DataFrame,
	labels []float64,
	column string,
	threshold float64,
	mem memory.Allocator,
) (*dataframe.DataFrame, []float64, error) {
	const op = "RemoveOutliers"

	if err := validation.NewCompoundValidator(
		validation.NewKindValidator(df, op, numericKinds, column),
		validation.NewLengthValidator(df.Len(), len(labels), op, "labels"),
	).Validate(); err != nil {
		return nil, nil, err
	}

	col, err := df.Float64s(op, column)
	if err != nil {
		return nil, nil, err
	}

	keep := make([]int, 0, df.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) || col.Value(i) <= threshold {
			keep = append(keep, i)
		}
	}

	kept := make([]float64, len(keep))
	for i, idx := range keep {
		kept[i] = labels[idx]
	}
	return df.Take(keep, mem), kept, nil
}
