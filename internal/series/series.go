// Package series provides the typed, nullable columns tables are built from.
// Every column is an Apache Arrow array; nulls live in the array's validity
// bitmap rather than in sentinel values.
package series

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Element is the set of Go types a column may hold.
type Element interface {
	float64 | string | bool
}

// Kind is the logical type of a column.
type Kind int

const (
	// Numeric columns hold float64 values.
	Numeric Kind = iota
	// Categorical columns hold string labels.
	Categorical
	// Boolean columns hold indicator values.
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// KindOf maps an Arrow data type onto a column kind.
func KindOf(dt arrow.DataType) (Kind, error) {
	switch dt.ID() {
	case arrow.FLOAT64:
		return Numeric, nil
	case arrow.STRING:
		return Categorical, nil
	case arrow.BOOL:
		return Boolean, nil
	default:
		return 0, fmt.Errorf("unsupported arrow type: %s", dt)
	}
}

// Series represents a typed data column with Apache Arrow backend
type Series[T Element] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values with no nulls.
func New[T Element](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks values[i] as
// null. A nil valid slice means every value is present.
func NewNullable[T Element](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("series %q: %d values but %d validity flags", name, len(values), len(valid)))
	}

	var arr arrow.Array

	switch v := any(values).(type) {
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}
}

// FromArray wraps an existing Arrow array, retaining a reference to it.
func FromArray[T Element](name string, arr arrow.Array) (*Series[T], error) {
	var zero T
	switch any(zero).(type) {
	case float64:
		if _, ok := arr.(*array.Float64); !ok {
			return nil, fmt.Errorf("series %q: expected float64 array, got %s", name, arr.DataType())
		}
	case string:
		if _, ok := arr.(*array.String); !ok {
			return nil, fmt.Errorf("series %q: expected string array, got %s", name, arr.DataType())
		}
	case bool:
		if _, ok := arr.(*array.Boolean); !ok {
			return nil, fmt.Errorf("series %q: expected bool array, got %s", name, arr.DataType())
		}
	}
	arr.Retain()
	return &Series[T]{name: name, array: arr}, nil
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Rename returns a series sharing this one's data under a new name.
func (s *Series[T]) Rename(name string) *Series[T] {
	s.array.Retain()
	return &Series[T]{name: name, array: s.array}
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullN returns the number of null values.
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// Kind returns the logical column type.
func (s *Series[T]) Kind() Kind {
	k, _ := KindOf(s.array.DataType())
	return k
}

// Values returns the data as a Go slice. Null positions hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Validity returns one flag per row, false where the value is null.
func (s *Series[T]) Validity() []bool {
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = s.array.IsValid(i)
	}
	return valid
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	}

	return result
}

// GetAsString returns the value at index formatted as text; "" for nulls.
// Numbers use the shortest representation, so 20.0 becomes "20".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}
	switch arr := s.array.(type) {
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'f', -1, 64)
	case *array.String:
		return arr.Value(index)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	default:
		return ""
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
