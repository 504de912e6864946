package dataframe_test

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupIndex(t *testing.T) {
	g := dataframe.NewGroupIndex(0)
	g.Put("NAmes", 0)
	g.Put("CollgCr", 1)
	g.Put("NAmes", 2)

	rows, ok := g.Get("NAmes")
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, rows)

	_, ok = g.Get("Edwards")
	assert.False(t, ok)
	assert.Equal(t, []string{"NAmes", "CollgCr"}, g.Keys())
}

func TestGroupIndexResize(t *testing.T) {
	g := dataframe.NewGroupIndex(1)
	for i := 0; i < 500; i++ {
		g.Put(fmt.Sprintf("key-%d", i), i)
		g.Put(fmt.Sprintf("key-%d", i), i+1000)
	}

	assert.Equal(t, 500, g.Len())
	for i := 0; i < 500; i++ {
		rows, ok := g.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, []int{i, i + 1000}, rows)
	}
	assert.Equal(t, "key-0", g.Keys()[0])
	assert.Equal(t, "key-499", g.Keys()[499])
}

func TestDataFrameGroupBy(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.NewNullable("Neighborhood", []string{"A", "", "B", "A"}, []bool{true, false, true, true}, mem),
	)
	defer df.Release()

	index, nullRows, err := df.GroupBy("test", "Neighborhood")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, nullRows)
	assert.Equal(t, []string{"A", "B"}, index.Keys())
	rows, _ := index.Get("A")
	assert.Equal(t, []int{0, 3}, rows)

	_, _, err = df.GroupBy("test", "Missing")
	assert.Error(t, err)
}
