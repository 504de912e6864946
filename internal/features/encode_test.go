package features_test

import (
	stderrors "errors"
	"testing"

	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/features"
	"github.com/gangfang/kaggle-scripts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneHotThreeIndicators(t *testing.T) {
	mem := testutil.SetupCheckedMemoryTest(t)
	defer mem.Release()

	// Training rows A, B and prediction row C.
	df := dataframe.New(
		testutil.Floats(mem.Allocator, "LotArea", []float64{8450, 9600, 11250}),
		testutil.Strings(mem.Allocator, "X", []string{"A", "B", "C"}),
	)
	defer df.Release()

	out, err := features.OneHot(df, []string{"X"}, mem.Allocator)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{"LotArea", "X_A", "X_B", "X_C"}, out.Columns())
	assert.Equal(t, []bool{true, false, false}, testutil.BoolValues(t, out, "X_A"))
	assert.Equal(t, []bool{false, true, false}, testutil.BoolValues(t, out, "X_B"))
	assert.Equal(t, []bool{false, false, true}, testutil.BoolValues(t, out, "X_C"))
}

func TestOneHotRowsSumToOne(t *testing.T) {
	mem := testutil.SetupCheckedMemoryTest(t)
	defer mem.Release()

	df := dataframe.New(
		testutil.Strings(mem.Allocator, "Fence", []string{"MnPrv", "", "GdWo", "MnPrv", ""}, 1, 4),
		testutil.Floats(mem.Allocator, "MSSubClass", []float64{20, 60, 20, 0, 120}, 3),
	)
	defer df.Release()

	out, err := features.OneHot(df, []string{"Fence", "MSSubClass"}, mem.Allocator)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, []string{
		"Fence_MnPrv", "Fence_None", "Fence_GdWo",
		"MSSubClass_20", "MSSubClass_60", "MSSubClass_None", "MSSubClass_120",
	}, out.Columns())

	for _, prefix := range []string{"Fence_", "MSSubClass_"} {
		sums := make([]int, out.Len())
		for _, name := range out.Columns() {
			if len(name) < len(prefix) || name[:len(prefix)] != prefix {
				continue
			}
			for i, v := range testutil.BoolValues(t, out, name) {
				if v {
					sums[i]++
				}
			}
		}
		for i, s := range sums {
			assert.Equal(t, 1, s, "%s row %d", prefix, i)
		}
	}
	testutil.AssertNoNulls(t, out)
}

func TestOneHotMissingColumn(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	df := dataframe.New(testutil.Strings(mem.Allocator, "Street", []string{"Pave"}))
	defer df.Release()

	_, err := features.OneHot(df, []string{"Alley"}, mem.Allocator)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
}

func TestOneHotIndicatorNameTaken(t *testing.T) {
	mem := testutil.SetupCheckedMemoryTest(t)
	defer mem.Release()

	df := dataframe.New(
		testutil.Strings(mem.Allocator, "Zone", []string{"A", "B"}),
		testutil.Floats(mem.Allocator, "Zone_A", []float64{1, 2}),
	)
	defer df.Release()

	_, err := features.OneHot(df, []string{"Zone"}, mem.Allocator)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Zone_A")
}

func TestOneHotIndicatorsCollideAcrossColumns(t *testing.T) {
	mem := testutil.SetupCheckedMemoryTest(t)
	defer mem.Release()

	df := dataframe.New(
		testutil.Strings(mem.Allocator, "Roof", []string{"Gable_Flat"}),
		testutil.Strings(mem.Allocator, "Roof_Gable", []string{"Flat"}),
	)
	defer df.Release()

	_, err := features.OneHot(df, []string{"Roof", "Roof_Gable"}, mem.Allocator)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSchemaMismatch))
}
