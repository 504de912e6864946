// Package testutil provides common testing utilities shared by the pipeline
// packages: allocator setup, column builders, table assertions and a
// synthetic house price dataset.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for tests.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{Allocator: memory.NewGoAllocator()}
}

// SetupCheckedMemoryTest creates an allocator that fails the test on
// Release if any Arrow buffer is still allocated.
func SetupCheckedMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	checked := memory.NewCheckedAllocator(memory.NewGoAllocator())
	return &TestMemoryContext{
		Allocator: checked,
		cleanup: func() {
			checked.AssertSize(tb, 0)
		},
	}
}

// Floats builds a numeric column; rows listed in nulls are null.
func Floats(mem memory.Allocator, name string, values []float64, nulls ...int) dataframe.ISeries {
	return series.NewNullable(name, values, validity(len(values), nulls), mem)
}

// Strings builds a categorical column; rows listed in nulls are null.
func Strings(mem memory.Allocator, name string, values []string, nulls ...int) dataframe.ISeries {
	return series.NewNullable(name, values, validity(len(values), nulls), mem)
}

// Bools builds a boolean column.
func Bools(mem memory.Allocator, name string, values []bool) dataframe.ISeries {
	return series.New(name, values, mem)
}

func validity(n int, nulls []int) []bool {
	if len(nulls) == 0 {
		return nil
	}
	valid := make([]bool, n)
	for i := range valid {
		valid[i] = true
	}
	for _, i := range nulls {
		valid[i] = false
	}
	return valid
}

// FloatValues returns a numeric column's values with NaN in null cells.
func FloatValues(t *testing.T, df *dataframe.DataFrame, name string) []float64 {
	t.Helper()
	s, err := df.Float64s("test", name)
	require.NoError(t, err)
	out := s.Values()
	for i := range out {
		if s.IsNull(i) {
			out[i] = math.NaN()
		}
	}
	return out
}

// StringValues returns a categorical column's values with "<null>" in null cells.
func StringValues(t *testing.T, df *dataframe.DataFrame, name string) []string {
	t.Helper()
	s, err := df.Strings("test", name)
	require.NoError(t, err)
	out := s.Values()
	for i := range out {
		if s.IsNull(i) {
			out[i] = "<null>"
		}
	}
	return out
}

// BoolValues returns a boolean column's values.
func BoolValues(t *testing.T, df *dataframe.DataFrame, name string) []bool {
	t.Helper()
	s, err := df.Bools("test", name)
	require.NoError(t, err)
	return s.Values()
}

// AssertFloatsEqual compares numeric values treating NaN as equal to NaN.
func AssertFloatsEqual(t *testing.T, expected, actual []float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "row %d: expected null, got %v", i, actual[i])
			continue
		}
		assert.InDelta(t, expected[i], actual[i], 1e-9, "row %d", i)
	}
}

// AssertDataFrameEqual compares shape, column order and every cell.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")

	for _, colName := range expected.Columns() {
		expectedCol, _ := expected.Column(colName)
		actualCol, ok := actual.Column(colName)
		require.True(t, ok, "actual column %s should exist", colName)
		require.Equal(t, expectedCol.Kind(), actualCol.Kind(), "column %s kind", colName)
		for i := 0; i < expectedCol.Len(); i++ {
			require.Equal(t, expectedCol.IsNull(i), actualCol.IsNull(i), "column %s row %d null", colName, i)
			assert.Equal(t, expectedCol.GetAsString(i), actualCol.GetAsString(i), "column %s row %d", colName, i)
		}
	}
}

// AssertNoNulls verifies that no column of df holds a null.
func AssertNoNulls(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()
	for _, name := range df.Columns() {
		assert.Zero(t, df.NullCount(name), "column %s has nulls", name)
	}
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
