package features

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/scigo/preprocessing"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/gangfang/kaggle-scripts/internal/validation"
)

// NullCategory labels the indicator that null cells map to.
const NullCategory = "None"

// encodedPrefix is the feature name prefix the encoder gives its single
// input column.
const encodedPrefix = "x0_"

// OneHot expands each listed column into one boolean indicator per distinct
// value, named {column}_{value} and ordered by first appearance. Null cells
// count as the value "None", so exactly one indicator per source column is
// set in every row. Source columns are removed and the indicators appended
// after the remaining columns. An indicator whose name is already taken
// fails with a SchemaMismatchError.
func OneHot(df *dataframe.DataFrame, columns []string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "OneHot"

	if err := validation.NewKindValidator(df, op, encodableKinds, columns...).Validate(); err != nil {
		return nil, err
	}

	indicators := make([]dataframe.ISeries, 0, len(columns)*4)
	for _, name := range columns {
		col, _ := df.Column(name)
		block, err := indicatorColumns(op, col, mem)
		if err != nil {
			releaseSeries(indicators)
			return nil, err
		}
		indicators = append(indicators, block...)
	}

	rest, err := df.Drop(columns...)
	if err != nil {
		releaseSeries(indicators)
		return nil, err
	}
	defer rest.Release()

	seen := make(map[string]struct{}, len(indicators))
	for _, s := range indicators {
		_, dup := seen[s.Name()]
		if dup || rest.HasColumn(s.Name()) {
			releaseSeries(indicators)
			return nil, errors.NewSchemaMismatchError(op, s.Name(), "indicator column already exists")
		}
		seen[s.Name()] = struct{}{}
	}
	return rest.WithColumns(indicators...)
}

// indicatorColumns builds the indicators for one column. The encoder yields
// the 0/1 block; the xxhash group index fixes first-appearance order.
func indicatorColumns(op string, col dataframe.ISeries, mem memory.Allocator) ([]dataframe.ISeries, error) {
	if col.Len() == 0 {
		return nil, nil
	}

	labels := make([][]string, col.Len())
	index := dataframe.NewGroupIndex(16)
	for i := range labels {
		label := categoryLabel(col, i)
		labels[i] = []string{label}
		index.Put(label, i)
	}

	encoder := preprocessing.NewOneHotEncoder()
	if err := encoder.Fit(labels); err != nil {
		return nil, errors.NewSchemaMismatchError(op, col.Name(), fmt.Sprintf("encoder fit: %v", err))
	}
	encoded, err := encoder.Transform(labels)
	if err != nil {
		return nil, errors.NewSchemaMismatchError(op, col.Name(), fmt.Sprintf("encoder transform: %v", err))
	}

	position := make(map[string]int, index.Len())
	for j, feature := range encoder.GetFeatureNamesOut(nil) {
		position[strings.TrimPrefix(feature, encodedPrefix)] = j
	}

	out := make([]dataframe.ISeries, 0, index.Len())
	for _, key := range index.Keys() {
		j, ok := position[key]
		if !ok {
			releaseSeries(out)
			return nil, errors.NewSchemaMismatchError(op, col.Name(),
				fmt.Sprintf("encoder dropped category %q", key))
		}
		values := make([]bool, col.Len())
		for i := range values {
			values[i] = encoded.At(i, j) == 1
		}
		out = append(out, series.New(col.Name()+"_"+key, values, mem))
	}
	return out, nil
}

func categoryLabel(col dataframe.ISeries, i int) string {
	if col.IsNull(i) {
		return NullCategory
	}
	return col.GetAsString(i)
}
