package config_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	assert.Equal(t, []string{"baseline", "full"}, config.BuiltinProfiles())
}

func TestLoadProfile_Full(t *testing.T) {
	profile, err := config.LoadProfile("full")
	require.NoError(t, err)

	assert.Equal(t, "full", profile.Name)
	assert.Equal(t, "SalePrice", profile.Label)
	assert.Equal(t, "Id", profile.IDColumn)
	assert.True(t, profile.SelectFeatures)
	assert.True(t, profile.LogTarget)

	require.NotNil(t, profile.Outlier)
	assert.Equal(t, "GrLivArea", profile.Outlier.Column)
	assert.InDelta(t, 4000.0, profile.Outlier.Threshold, 1e-12)

	assert.Equal(t, "None", profile.Impute.Sentinel)
	assert.Len(t, profile.Impute.SentinelColumns, 15)
	assert.Equal(t, []config.GroupMedianRule{{Column: "LotFrontage", GroupBy: "Neighborhood"}}, profile.Impute.GroupMedian)
	assert.Len(t, profile.Impute.ZeroColumns, 10)
	assert.Len(t, profile.Impute.ModeColumns, 7)

	assert.Len(t, profile.Polynomial.Columns, 15)
	assert.Equal(t, []int{2, 3}, profile.Polynomial.Powers)
	assert.True(t, profile.Polynomial.Sqrt)

	require.Len(t, profile.EqualityFlags, 2)
	assert.InDelta(t, 1.0, profile.EqualityFlags[0].WhenEqual, 1e-12)
	assert.InDelta(t, 0.0, profile.EqualityFlags[1].WhenEqual, 1e-12)

	// Condition2 shares Condition1's mapping through a YAML anchor.
	var cond1, cond2 map[string]string
	for _, remap := range profile.Remaps {
		switch remap.Column {
		case "Condition1":
			cond1 = remap.Mapping
		case "Condition2":
			cond2 = remap.Mapping
		}
	}
	require.NotNil(t, cond1)
	assert.Equal(t, cond1, cond2)
	assert.Equal(t, "Train", cond1["RRAe"])

	var gentle config.Recode
	for _, recode := range profile.Recodes {
		if recode.Column == "LandSlope" {
			gentle = recode
		}
	}
	assert.Equal(t, "GentleSlope_Flag", gentle.TargetColumn())
	assert.InDelta(t, 1.0, gentle.Mapping["Gtl"], 1e-12)

	require.Len(t, profile.Bins, 3)
	assert.Equal(t, []float64{1002.5, 2005, 3007.5}, profile.Bins[0].Breakpoints)
	assert.Len(t, profile.OneHot, 31)
	assert.Contains(t, profile.Drop, "Heating")
}

func TestLoadProfile_Baseline(t *testing.T) {
	profile, err := config.LoadProfile("baseline")
	require.NoError(t, err)

	assert.False(t, profile.SelectFeatures)
	assert.False(t, profile.LogTarget)
	assert.Empty(t, profile.Impute.GroupMedian)
	assert.Contains(t, profile.Impute.ZeroColumns, "LotFrontage")
	assert.Empty(t, profile.Bins)
	assert.NotEmpty(t, profile.OneHot)
}

func TestLoadProfile_Unknown(t *testing.T) {
	_, err := config.LoadProfile("does-not-exist")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), `unknown profile "does-not-exist"`)
}

func TestLoadProfile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `
name: custom
label: SalePrice
bins:
  - {column: LotArea, quantiles: 4}
one_hot: [LotArea]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profile, err := config.LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", profile.Name)
	assert.Equal(t, "None", profile.Impute.Sentinel)
	assert.Equal(t, 4, profile.Bins[0].Quantiles)
}

func TestParseProfile_Validation(t *testing.T) {
	tests := []struct {
		name          string
		document      string
		expectedError string
	}{
		{
			name:          "empty label",
			document:      "name: x\n",
			expectedError: "label must not be empty",
		},
		{
			name:          "unknown key",
			document:      "name: x\nlabel: y\nbogus: 1\n",
			expectedError: "invalid profile document",
		},
		{
			name:          "breakpoints out of order",
			document:      "name: x\nlabel: y\nbins:\n  - {column: a, breakpoints: [3, 2]}\n",
			expectedError: "breakpoints must be strictly increasing",
		},
		{
			name:          "repeated breakpoint",
			document:      "name: x\nlabel: y\nbins:\n  - {column: a, breakpoints: [1, 1]}\n",
			expectedError: "breakpoints must be strictly increasing",
		},
		{
			name:          "too few quantiles",
			document:      "name: x\nlabel: y\nbins:\n  - {column: a, quantiles: 1}\n",
			expectedError: "quantiles must be at least 2, got 1",
		},
		{
			name:          "breakpoints and quantiles",
			document:      "name: x\nlabel: y\nbins:\n  - {column: a, quantiles: 3, breakpoints: [1]}\n",
			expectedError: "sets both breakpoints and quantiles",
		},
		{
			name:          "overlapping imputation",
			document:      "name: x\nlabel: y\nimpute:\n  zero_columns: [a]\n  mode_columns: [a]\n",
			expectedError: `column "a" is imputed by both zero and mode`,
		},
		{
			name:          "bad when_equal",
			document:      "name: x\nlabel: y\nequality_flags:\n  - {name: f, left: a, right: b, when_equal: 2}\n",
			expectedError: "when_equal must be 0 or 1",
		},
		{
			name:          "power below two",
			document:      "name: x\nlabel: y\npolynomial:\n  columns: [a]\n  powers: [1]\n",
			expectedError: "polynomial powers must be at least 2, got 1",
		},
		{
			name:          "duplicate one-hot",
			document:      "name: x\nlabel: y\none_hot: [a, a]\n",
			expectedError: `column "a" is one-hot encoded twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseProfile([]byte(tt.document))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.True(t, stderrors.Is(err, errors.ErrConfig))
		})
	}
}
