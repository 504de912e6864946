package io_test

import (
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/io"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReader(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("infers numeric and categorical columns", func(t *testing.T) {
		csvData := `Id,MSZoning,LotFrontage,SalePrice
1,RL,65,208500
2,RL,80,181500
3,RM,68.5,223500`

		df, err := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 3, df.Len())
		assert.Equal(t, []string{"Id", "MSZoning", "LotFrontage", "SalePrice"}, df.Columns())
		assert.Equal(t, []series.Kind{series.Numeric, series.Categorical, series.Numeric, series.Numeric}, df.Kinds())

		lf, err := df.Float64s("test", "LotFrontage")
		require.NoError(t, err)
		assert.Equal(t, []float64{65, 80, 68.5}, lf.Values())
	})

	t.Run("NA markers become nulls", func(t *testing.T) {
		csvData := `Alley,LotFrontage,MasVnrType
NA,65,None
Grvl,NA,BrkFace
Pave,,None`

		df, err := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()

		alley, err := df.Strings("test", "Alley")
		require.NoError(t, err)
		assert.True(t, alley.IsNull(0))
		assert.Equal(t, "Grvl", alley.Value(1))

		lf, err := df.Float64s("test", "LotFrontage")
		require.NoError(t, err)
		assert.Equal(t, 2, lf.NullN())

		// "None" is a real category in this dataset, not a missing marker
		mvt, err := df.Strings("test", "MasVnrType")
		require.NoError(t, err)
		assert.Equal(t, 0, mvt.NullN())
	})

	t.Run("all-null column is numeric", func(t *testing.T) {
		csvData := `PoolQC,x
NA,1
NA,2`

		df, err := io.NewCSVReader(strings.NewReader(csvData), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()

		pool, err := df.Float64s("test", "PoolQC")
		require.NoError(t, err)
		assert.Equal(t, 2, pool.NullN())
	})

	t.Run("header only", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader("a,b\n"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()
		assert.Equal(t, 0, df.Len())
		assert.Equal(t, 2, df.Width())
	})

	t.Run("custom delimiter", func(t *testing.T) {
		opts := io.DefaultCSVOptions()
		opts.Delimiter = ';'
		df, err := io.NewCSVReader(strings.NewReader("a;b\n1;x\n"), opts, mem).Read()
		require.NoError(t, err)
		defer df.Release()
		assert.Equal(t, []string{"a", "b"}, df.Columns())
	})
}

func TestCSVReaderErrors(t *testing.T) {
	mem := memory.NewGoAllocator()

	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"inconsistent column count", "a,b\n1,2\n3\n"},
		{"unterminated quote", "a,b\n\"1,2\n"},
		{"duplicate header", "a,a\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := io.NewCSVReader(strings.NewReader(tt.data), io.DefaultCSVOptions(), mem).Read()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDataAccess)
		})
	}
}
