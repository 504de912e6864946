package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDataFrame(mem memory.Allocator) *dataframe.DataFrame {
	// DataFrame takes ownership of the series - no need to release them manually
	return dataframe.New(
		series.New("Neighborhood", []string{"CollgCr", "Veenker", "CollgCr"}, mem),
		series.NewNullable("LotFrontage", []float64{65, 0, 68}, []bool{true, false, true}, mem),
		series.New("CentralAir_Y", []bool{true, true, false}, mem),
	)
}

func TestNewDataFrame(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := createTestDataFrame(mem)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 3, df.Width())
	assert.Equal(t, []string{"Neighborhood", "LotFrontage", "CentralAir_Y"}, df.Columns())
	assert.Equal(t, []series.Kind{series.Categorical, series.Numeric, series.Boolean}, df.Kinds())
	require.NoError(t, df.Validate())
	assert.Contains(t, df.String(), "DataFrame[3x3]")
}

func TestValidateLengthMismatch(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("a", []float64{1, 2}, mem),
		series.New("b", []float64{1}, mem),
	)
	defer df.Release()

	err := df.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestSelectAndDrop(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	df := createTestDataFrame(mem)
	defer df.Release()

	t.Run("select keeps requested order", func(t *testing.T) {
		sel, err := df.Select("CentralAir_Y", "Neighborhood")
		require.NoError(t, err)
		defer sel.Release()
		assert.Equal(t, []string{"CentralAir_Y", "Neighborhood"}, sel.Columns())
	})

	t.Run("select missing column", func(t *testing.T) {
		_, err := df.Select("Neighborhood", "Nope")
		assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	})

	t.Run("drop", func(t *testing.T) {
		dropped, err := df.Drop("LotFrontage")
		require.NoError(t, err)
		defer dropped.Release()
		assert.Equal(t, []string{"Neighborhood", "CentralAir_Y"}, dropped.Columns())
		assert.True(t, df.HasColumn("LotFrontage"))
	})

	t.Run("drop missing column", func(t *testing.T) {
		_, err := df.Drop("Nope")
		assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	})
}

func TestWithColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := createTestDataFrame(mem)
	defer df.Release()

	t.Run("appends new column", func(t *testing.T) {
		out, err := df.WithColumn(series.New("LotArea", []float64{8450, 9600, 11250}, mem))
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, "LotArea", out.Columns()[3])
	})

	t.Run("replaces in place", func(t *testing.T) {
		out, err := df.WithColumn(series.New("LotFrontage", []float64{1, 2, 3}, mem))
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, df.Columns(), out.Columns())
		col, err := out.Float64s("test", "LotFrontage")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, col.Values())
	})

	t.Run("length mismatch", func(t *testing.T) {
		s := series.New("short", []float64{1}, mem)
		defer s.Release()
		_, err := df.WithColumn(s)
		assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	})
}

func TestSliceTakeConcat(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	df := createTestDataFrame(mem)
	defer df.Release()

	head := df.Slice(0, 2)
	defer head.Release()
	tail := df.Slice(2, 3)
	defer tail.Release()
	assert.Equal(t, 2, head.Len())
	assert.Equal(t, 1, tail.Len())

	joined, err := head.Concat(tail, mem)
	require.NoError(t, err)
	defer joined.Release()

	for _, name := range df.Columns() {
		orig, _ := df.Column(name)
		got, _ := joined.Column(name)
		for i := 0; i < df.Len(); i++ {
			assert.Equal(t, orig.IsNull(i), got.IsNull(i), "%s[%d]", name, i)
			assert.Equal(t, orig.GetAsString(i), got.GetAsString(i), "%s[%d]", name, i)
		}
	}

	taken := df.Take([]int{2, 0}, mem)
	defer taken.Release()
	nb, err := taken.Strings("test", "Neighborhood")
	require.NoError(t, err)
	assert.Equal(t, []string{"CollgCr", "CollgCr"}, nb.Values())
	lf, err := taken.Float64s("test", "LotFrontage")
	require.NoError(t, err)
	assert.Equal(t, []float64{68, 65}, lf.Values())
}

func TestConcatSchemaMismatch(t *testing.T) {
	mem := memory.NewGoAllocator()
	left := dataframe.New(series.New("a", []float64{1}, mem))
	defer left.Release()
	right := dataframe.New(series.New("a", []string{"x"}, mem))
	defer right.Release()
	other := dataframe.New(series.New("b", []float64{1}, mem))
	defer other.Release()

	_, err := left.Concat(right, mem)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)

	_, err = left.Concat(other, mem)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
}

func TestTypedAccessors(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := createTestDataFrame(mem)
	defer df.Release()

	_, err := df.Float64s("Impute", "Neighborhood")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "expected numeric column, got categorical")

	_, err = df.Strings("Impute", "Missing")
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)

	flags, err := df.Bools("Encode", "CentralAir_Y")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, flags.Values())
}

func TestToMatrix(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("numeric and boolean columns", func(t *testing.T) {
		df := dataframe.New(
			series.New("x", []float64{1.5, 2.5}, mem),
			series.New("flag", []bool{false, true}, mem),
		)
		defer df.Release()

		m, err := df.ToMatrix()
		require.NoError(t, err)
		r, c := m.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 2, c)
		assert.InDelta(t, 2.5, m.At(1, 0), 1e-12)
		assert.InDelta(t, 1.0, m.At(1, 1), 1e-12)
		assert.InDelta(t, 0.0, m.At(0, 1), 1e-12)
	})

	t.Run("nulls are rejected", func(t *testing.T) {
		df := createTestDataFrame(mem)
		defer df.Release()
		sel, err := df.Select("LotFrontage")
		require.NoError(t, err)
		defer sel.Release()

		_, err = sel.ToMatrix()
		assert.ErrorIs(t, err, errors.ErrModelFit)
	})

	t.Run("categorical columns are rejected", func(t *testing.T) {
		df := dataframe.New(series.New("s", []string{"a"}, mem))
		defer df.Release()
		_, err := df.ToMatrix()
		assert.ErrorIs(t, err, errors.ErrModelFit)
	})
}
