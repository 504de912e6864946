package features

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/gangfang/kaggle-scripts/internal/validation"
)

// Synthesize derives the profile's features in a fixed order: polynomial
// terms, equality flags, presence flags, category remaps, recodes and bins.
// trainRows is the number of leading rows that came from the training
// table; quantile bins are fitted on those rows only.
func Synthesize(df *dataframe.DataFrame, profile *config.Profile, trainRows int, mem memory.Allocator) (*dataframe.DataFrame, error) {
	steps := []func(*dataframe.DataFrame) (*dataframe.DataFrame, error){
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return AddPolynomials(d, profile.Polynomial, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return AddEqualityFlags(d, profile.EqualityFlags, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return AddPresenceFlags(d, profile.PresenceFlags, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return Remap(d, profile.Remaps, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return Recode(d, profile.Recodes, mem)
		},
		func(d *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return Bin(d, profile.Bins, trainRows, mem)
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
	return current, nil
}

// PolynomialName names the derived column for a power, or "Sq" for the
// square root.
func PolynomialName(column string, power int) string {
	if power == 0 {
		return column + "-Sq"
	}
	return column + "-" + strconv.Itoa(power)
}

// AddPolynomials appends <col>-<p> for every configured power and <col>-Sq
// when square roots are enabled. Nulls propagate; negative inputs give NaN
// square roots.
func AddPolynomials(df *dataframe.DataFrame, spec config.PolynomialSpec, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "AddPolynomials"

	if err := validation.NewKindValidator(df, op, numericKinds, spec.Columns...).Validate(); err != nil {
		return nil, err
	}

	derived := make([]dataframe.ISeries, 0, len(spec.Columns)*(len(spec.Powers)+1))
	for _, name := range spec.Columns {
		col, _ := df.Float64s(op, name)
		for _, p := range spec.Powers {
			power := float64(p)
			derived = append(derived, mapFloats(col, PolynomialName(name, p), func(x float64) float64 {
				return math.Pow(x, power)
			}, mem))
		}
		if spec.Sqrt {
			derived = append(derived, mapFloats(col, PolynomialName(name, 0), math.Sqrt, mem))
		}
	}
	return df.WithColumns(derived...)
}

// AddEqualityFlags appends one numeric flag per rule: WhenEqual where the
// two columns hold the same value, 1-WhenEqual otherwise. A null on either
// side counts as not equal.
func AddEqualityFlags(df *dataframe.DataFrame, flags []config.EqualityFlag, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "AddEqualityFlags"

	derived := make([]dataframe.ISeries, 0, len(flags))
	for _, flag := range flags {
		if err := validation.ValidateColumns(df, op, flag.Left, flag.Right); err != nil {
			releaseSeries(derived)
			return nil, err
		}
		left, _ := df.Column(flag.Left)
		right, _ := df.Column(flag.Right)
		if left.Kind() != right.Kind() {
			releaseSeries(derived)
			return nil, errors.NewSchemaMismatchError(op, flag.Right,
				fmt.Sprintf("cannot compare %s column %q with %s column", left.Kind(), flag.Left, right.Kind()))
		}

		values := make([]float64, df.Len())
		for i := range values {
			equal := !left.IsNull(i) && !right.IsNull(i) && left.GetAsString(i) == right.GetAsString(i)
			if equal {
				values[i] = flag.WhenEqual
			} else {
				values[i] = 1 - flag.WhenEqual
			}
		}
		derived = append(derived, series.New(flag.Name, values, mem))
	}
	return df.WithColumns(derived...)
}

// AddPresenceFlags appends 1 where the source column is non-zero and 0
// where it is zero. A null source counts as present, so the flag is never
// null.
func AddPresenceFlags(df *dataframe.DataFrame, flags []config.PresenceFlag, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "AddPresenceFlags"

	derived := make([]dataframe.ISeries, 0, len(flags))
	for _, flag := range flags {
		col, err := df.Float64s(op, flag.Column)
		if err != nil {
			releaseSeries(derived)
			return nil, err
		}
		values := make([]float64, col.Len())
		for i := range values {
			if col.IsNull(i) || col.Value(i) != 0 {
				values[i] = 1
			}
		}
		derived = append(derived, series.New(flag.Name, values, mem))
	}
	return df.WithColumns(derived...)
}

// Remap rewrites categorical labels through each rule's mapping in place.
// Labels absent from the mapping become null.
func Remap(df *dataframe.DataFrame, remaps []config.Remap, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "Remap"

	derived := make([]dataframe.ISeries, 0, len(remaps))
	for _, remap := range remaps {
		col, err := df.Strings(op, remap.Column)
		if err != nil {
			releaseSeries(derived)
			return nil, err
		}
		derived = append(derived, lookup(col, remap.Column, remap.Mapping, mem))
	}
	return df.WithColumns(derived...)
}

// Recode turns categorical labels into numbers, replacing the source column
// or writing a new one when the rule names a target. Labels absent from the
// mapping become null.
func Recode(df *dataframe.DataFrame, recodes []config.Recode, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "Recode"

	current := df.Clone()
	for _, recode := range recodes {
		col, err := current.Strings(op, recode.Column)
		if err != nil {
			current.Release()
			return nil, err
		}
		if err := replaceColumn(&current, lookup(col, recode.TargetColumn(), recode.Mapping, mem)); err != nil {
			current.Release()
			return nil, err
		}
	}
	return current, nil
}

// Bin replaces numeric columns with their 1-based bin index. Breakpoints
// come from the rule, or from quantiles of the first trainRows rows.
func Bin(df *dataframe.DataFrame, rules []config.BinRule, trainRows int, mem memory.Allocator) (*dataframe.DataFrame, error) {
	const op = "Bin"

	derived := make([]dataframe.ISeries, 0, len(rules))
	for _, rule := range rules {
		col, err := df.Float64s(op, rule.Column)
		if err != nil {
			releaseSeries(derived)
			return nil, err
		}

		breakpoints := rule.Breakpoints
		if rule.Quantiles > 0 {
			breakpoints, err = trainingBreakpoints(col, rule.Quantiles, trainRows)
			if err != nil {
				releaseSeries(derived)
				return nil, err
			}
		}

		derived = append(derived, mapFloats(col, rule.Column, func(x float64) float64 {
			return binIndex(x, breakpoints)
		}, mem))
	}
	return df.WithColumns(derived...)
}

func trainingBreakpoints(col *series.Series[float64], q, trainRows int) ([]float64, error) {
	if trainRows > col.Len() {
		trainRows = col.Len()
	}
	values := make([]float64, 0, trainRows)
	for i := 0; i < trainRows; i++ {
		if !col.IsNull(i) {
			values = append(values, col.Value(i))
		}
	}
	if len(values) == 0 {
		return nil, errors.NewSchemaMismatchError("Bin", col.Name(), "no training values to compute quantiles from")
	}
	return quantileBreakpoints(values, q), nil
}

// mapFloats applies fn to every non-null value of s into a new column.
func mapFloats(s *series.Series[float64], name string, fn func(float64) float64, mem memory.Allocator) dataframe.ISeries {
	values := s.Values()
	valid := s.Validity()
	for i := range values {
		if valid[i] {
			values[i] = fn(values[i])
		}
	}
	return series.NewNullable(name, values, valid, mem)
}

// lookup maps labels of s through mapping into a new column named name.
func lookup[V series.Element](s *series.Series[string], name string, mapping map[string]V, mem memory.Allocator) dataframe.ISeries {
	values := make([]V, s.Len())
	valid := make([]bool, s.Len())
	for i := range values {
		if s.IsNull(i) {
			continue
		}
		if v, ok := mapping[s.Value(i)]; ok {
			values[i] = v
			valid[i] = true
		}
	}
	return series.NewNullable(name, values, valid, mem)
}
