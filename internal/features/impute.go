package features

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/gangfang/kaggle-scripts/internal/validation"
)

var (
	numericKinds     = []series.Kind{series.Numeric}
	categoricalKinds = []series.Kind{series.Categorical}
	encodableKinds   = []series.Kind{series.Numeric, series.Categorical, series.Boolean}
)

// Impute fills missing values according to policy: sentinel fill, then
// groupwise median, then zero fill, then mode fill. Every column the policy
// names is null-free afterwards.
func Impute(df *dataframe.DataFrame, policy config.ImputePolicy, mem memory.Allocator) (*dataframe.DataFrame, error) {
	steps := []func(*dataframe.DataFrame) (*dataframe.DataFrame, error){
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return FillSentinel(d, policy.Sentinel, policy.SentinelColumns, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return FillGroupMedian(d, policy.GroupMedian, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return FillZero(d, policy.ZeroColumns, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return FillMode(d, policy.ModeColumns, mem)
		},
	}

	current := df.Clone()
	for _, step := range steps {
		next, err := step(current)
		current.Release()
		if err != nil {
			return nil, err
		}
		current = next
	}

	targets := append([]string(nil), policy.SentinelColumns...)
	for _, rule := range policy.GroupMedian {
		targets = append(targets, rule.Column)
	}
	targets = append(targets, policy.ZeroColumns...)
	targets = append(targets, policy.ModeColumns...)
	if err := validation.ValidateNoNulls(current, "Impute", targets...); err != nil {
		current.Release()
		return nil, err
	}
	return current, nil
}

// FillSentinel replaces nulls in categorical columns with sentinel. A
// column read as numeric because every cell was empty becomes a categorical
// column of sentinels.
func FillSentinel(df *dataframe.DataFrame, sentinel string, columns []string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "FillSentinel"

	filled := make([]dataframe.ISeries, 0, len(columns))
	for _, name := range columns {
		kind, ok := df.ColumnKind(name)
		if !ok {
			releaseSeries(filled)
			return nil, errors.NewColumnNotFoundError(op, name)
		}

		if kind == series.Numeric && df.NullCount(name) == df.Len() {
			values := make([]string, df.Len())
			for i := range values {
				values[i] = sentinel
			}
			filled = append(filled, series.New(name, values, mem))
			continue
		}

		col, err := df.Strings(op, name)
		if err != nil {
			releaseSeries(filled)
			return nil, err
		}
		filled = append(filled, fillNulls(col, func(int) string { return sentinel }, mem))
	}
	return df.WithColumns(filled...)
}

// FillGroupMedian replaces nulls with the median of the rows sharing the
// group column's value. Rows whose group has no value, or whose group key
// is null, fall back to the column's overall median.
func FillGroupMedian(df *dataframe.DataFrame, rules []config.GroupMedianRule, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "FillGroupMedian"

	filled := make([]dataframe.ISeries, 0, len(rules))
	for _, rule := range rules {
		s, err := groupMedian(df, rule, mem)
		if err != nil {
			releaseSeries(filled)
			return nil, err
		}
		filled = append(filled, s)
	}
	if len(filled) == 0 {
		return df.Clone(), nil
	}

	out, err := df.WithColumns(filled...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func groupMedian(df *dataframe.DataFrame, rule config.GroupMedianRule, mem memory.Allocator) (dataframe.ISeries, error) {
	const op = "FillGroupMedian"

	col, err := df.Float64s(op, rule.Column)
	if err != nil {
		return nil, err
	}

	global, ok := median(presentValues(col))
	if !ok {
		return nil, errors.NewImputationError(op, rule.Column, "column has no values to take a median of")
	}

	groups, nullKeys, err := df.GroupBy(op, rule.GroupBy)
	if err != nil {
		return nil, err
	}

	fill := make(map[int]float64, col.NullN())
	for _, key := range groups.Keys() {
		rows, _ := groups.Get(key)
		var present []float64
		var missing []int
		for _, i := range rows {
			if col.IsNull(i) {
				missing = append(missing, i)
			} else {
				present = append(present, col.Value(i))
			}
		}
		if len(missing) == 0 {
			continue
		}
		m, ok := median(present)
		if !ok {
			m = global
		}
		for _, i := range missing {
			fill[i] = m
		}
	}
	for _, i := range nullKeys {
		if col.IsNull(i) {
			fill[i] = global
		}
	}

	return fillNulls(col, func(i int) float64 { return fill[i] }, mem), nil
}

// FillZero replaces nulls in numeric columns with 0.
func FillZero(df *dataframe.DataFrame, columns []string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "FillZero"

	filled := make([]dataframe.ISeries, 0, len(columns))
	for _, name := range columns {
		col, err := df.Float64s(op, name)
		if err != nil {
			releaseSeries(filled)
			return nil, err
		}
		filled = append(filled, fillNulls(col, func(int) float64 { return 0 }, mem))
	}
	return df.WithColumns(filled...)
}

// FillMode replaces nulls with the column's most frequent value. Ties are
// broken by the smallest value.
func FillMode(df *dataframe.DataFrame, columns []string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "FillMode"

	filled := make([]dataframe.ISeries, 0, len(columns))
	for _, name := range columns {
		s, err := modeFill(df, op, name, mem)
		if err != nil {
			releaseSeries(filled)
			return nil, err
		}
		filled = append(filled, s)
	}
	return df.WithColumns(filled...)
}

func modeFill(df *dataframe.DataFrame, op, name string, mem memory.Allocator) (dataframe.ISeries, error) {
	if err := validation.NewKindValidator(df, op,
		[]series.Kind{series.Numeric, series.Categorical}, name).Validate(); err != nil {
		return nil, err
	}

	if kind, _ := df.ColumnKind(name); kind == series.Categorical {
		col, _ := df.Strings(op, name)
		m, ok := mode(presentValues(col))
		if !ok {
			return nil, errors.NewImputationError(op, name, "column has no values to take a mode of")
		}
		return fillNulls(col, func(int) string { return m }, mem), nil
	}

	col, _ := df.Float64s(op, name)
	m, ok := mode(presentValues(col))
	if !ok {
		return nil, errors.NewImputationError(op, name, "column has no values to take a mode of")
	}
	return fillNulls(col, func(int) float64 { return m }, mem), nil
}

// fillNulls copies s, replacing each null cell i with value(i).
func fillNulls[T series.Element](s *series.Series[T], value func(int) T, mem memory.Allocator) *series.Series[T] {
	values := s.Values()
	for i := range values {
		if s.IsNull(i) {
			values[i] = value(i)
		}
	}
	return series.New(s.Name(), values, mem)
}

// presentValues returns the non-null values of s in row order.
func presentValues[T series.Element](s *series.Series[T]) []T {
	out := make([]T, 0, s.Len()-s.NullN())
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			out = append(out, s.Value(i))
		}
	}
	return out
}

func releaseSeries(cols []dataframe.ISeries) {
	for _, s := range cols {
		s.Release()
	}
}
