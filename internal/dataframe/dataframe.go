// Package dataframe provides the schema-aware table every pipeline stage
// reads and returns. Columns are Arrow-backed series; a DataFrame owns one
// reference to each of its columns and releases them in Release.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries. The DataFrame takes
// ownership of the series. Use Validate to check the schema invariants.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, dup := columns[name]; !dup {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Validate checks that every column has the same length.
func (df *DataFrame) Validate() error {
	if len(df.order) == 0 {
		return nil
	}
	expected := df.columns[df.order[0]].Len()
	for _, name := range df.order[1:] {
		if n := df.columns[name].Len(); n != expected {
			return errors.NewSchemaMismatchError("Validate", name,
				fmt.Sprintf("expected length %d, got %d", expected, n))
		}
	}
	return nil
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.order)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, exists := df.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// ColumnKind returns the kind of the named column.
func (df *DataFrame) ColumnKind(name string) (series.Kind, bool) {
	s, exists := df.columns[name]
	if !exists {
		return 0, false
	}
	return s.Kind(), true
}

// NullCount returns the number of null cells in the named column, or 0 if
// the column does not exist.
func (df *DataFrame) NullCount(name string) int {
	s, exists := df.columns[name]
	if !exists {
		return 0
	}
	return s.NullN()
}

// Kinds returns the column kinds in column order.
func (df *DataFrame) Kinds() []series.Kind {
	kinds := make([]series.Kind, len(df.order))
	for i, name := range df.order {
		kinds[i] = df.columns[name].Kind()
	}
	return kinds
}

// Select returns a new DataFrame with only the specified columns, in the
// order given. A missing column is a schema error.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		s, exists := df.columns[name]
		if !exists {
			releaseAll(selected)
			return nil, errors.NewColumnNotFoundError("Select", name)
		}
		selected = append(selected, retained(s))
	}
	return New(selected...), nil
}

// Drop returns a new DataFrame without the specified columns. Every named
// column must exist.
func (df *DataFrame) Drop(names ...string) (*DataFrame, error) {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		if !df.HasColumn(name) {
			return nil, errors.NewColumnNotFoundError("Drop", name)
		}
		dropSet[name] = true
	}

	kept := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			kept = append(kept, retained(df.columns[name]))
		}
	}
	return New(kept...), nil
}

// WithColumn returns a new DataFrame with s added. A column with the same
// name is replaced in place, keeping its position. The DataFrame takes
// ownership of s.
func (df *DataFrame) WithColumn(s ISeries) (*DataFrame, error) {
	if df.Width() > 0 && s.Len() != df.Len() {
		return nil, errors.NewSchemaMismatchError("WithColumn", s.Name(),
			fmt.Sprintf("expected length %d, got %d", df.Len(), s.Len()))
	}

	cols := make([]ISeries, 0, len(df.order)+1)
	replaced := false
	for _, name := range df.order {
		if name == s.Name() {
			cols = append(cols, s)
			replaced = true
			continue
		}
		cols = append(cols, retained(df.columns[name]))
	}
	if !replaced {
		cols = append(cols, s)
	}
	return New(cols...), nil
}

// WithColumns applies WithColumn for each series in order.
func (df *DataFrame) WithColumns(cols ...ISeries) (*DataFrame, error) {
	current := df.Clone()
	for i, s := range cols {
		next, err := current.WithColumn(s)
		current.Release()
		if err != nil {
			releaseAll(cols[i:])
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Clone returns a DataFrame sharing this one's column data.
func (df *DataFrame) Clone() *DataFrame {
	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		cols = append(cols, retained(df.columns[name]))
	}
	return New(cols...)
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		s := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s (nulls=%d)", name, s.DataType().String(), s.NullN()))
	}

	return strings.Join(parts, "\n")
}

// Slice creates a new DataFrame containing rows from start (inclusive) to
// end (exclusive). The slice shares memory with df.
func (df *DataFrame) Slice(start, end int) *DataFrame {
	length := df.Len()
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}

	sliced := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		arr := df.columns[name].Array()
		part := array.NewSlice(arr, int64(start), int64(end))
		arr.Release()
		sliced = append(sliced, wrapArray(name, part))
		part.Release()
	}
	return New(sliced...)
}

// Take creates a new DataFrame with the rows at the given indices, in the
// given order.
func (df *DataFrame) Take(indices []int, mem memory.Allocator) *DataFrame {
	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		taken = append(taken, takeSeries(df.columns[name], indices, mem))
	}
	return New(taken...)
}

// Concat appends other's rows after df's rows. Both frames must have the
// same column names, order and kinds.
func (df *DataFrame) Concat(other *DataFrame, mem memory.Allocator) (*DataFrame, error) {
	if err := df.sameSchema(other); err != nil {
		return nil, err
	}

	out := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		left := df.columns[name].Array()
		right := other.columns[name].Array()
		joined, err := array.Concatenate([]arrow.Array{left, right}, mem)
		left.Release()
		right.Release()
		if err != nil {
			releaseAll(out)
			return nil, errors.NewSchemaMismatchError("Concat", name, err.Error())
		}
		out = append(out, wrapArray(name, joined))
		joined.Release()
	}
	return New(out...), nil
}

// sameSchema checks if two DataFrames have the same column structure
func (df *DataFrame) sameSchema(other *DataFrame) error {
	if len(df.order) != len(other.order) {
		return errors.NewSchemaMismatchError("Concat", "",
			fmt.Sprintf("column count differs: %d vs %d", len(df.order), len(other.order)))
	}
	for i, name := range df.order {
		if other.order[i] != name {
			return errors.NewSchemaMismatchError("Concat", name,
				fmt.Sprintf("column order differs at position %d: %q", i, other.order[i]))
		}
		if !arrow.TypeEqual(df.columns[name].DataType(), other.columns[name].DataType()) {
			return errors.NewSchemaMismatchError("Concat", name,
				fmt.Sprintf("type differs: %s vs %s", df.columns[name].DataType(), other.columns[name].DataType()))
		}
	}
	return nil
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}

// wrapArray builds a series around arr, retaining its own reference.
func wrapArray(name string, arr arrow.Array) ISeries {
	var (
		s   ISeries
		err error
	)
	switch arr.(type) {
	case *array.Float64:
		s, err = series.FromArray[float64](name, arr)
	case *array.String:
		s, err = series.FromArray[string](name, arr)
	case *array.Boolean:
		s, err = series.FromArray[bool](name, arr)
	default:
		err = fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
	if err != nil {
		panic(fmt.Sprintf("dataframe: wrapping column %q: %v", name, err))
	}
	return s
}

// takeSeries gathers rows of s by index into a new series.
func takeSeries(s ISeries, indices []int, mem memory.Allocator) ISeries {
	switch typed := s.(type) {
	case *series.Series[float64]:
		return takeTyped(typed, indices, mem)
	case *series.Series[string]:
		return takeTyped(typed, indices, mem)
	case *series.Series[bool]:
		return takeTyped(typed, indices, mem)
	default:
		panic("dataframe: unsupported series implementation")
	}
}

func takeTyped[T series.Element](s *series.Series[T], indices []int, mem memory.Allocator) ISeries {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		valid[i] = !s.IsNull(idx)
		values[i] = s.Value(idx)
	}
	return series.NewNullable(s.Name(), values, valid, mem)
}

func releaseAll(cols []ISeries) {
	for _, s := range cols {
		s.Release()
	}
}
