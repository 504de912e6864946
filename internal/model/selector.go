package model

import (
	"fmt"

	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FeatureMask is the ordered list of columns chosen on the training block.
// It is applied unchanged to every block that is scored with the model.
type FeatureMask struct {
	Names      []string
	Importance map[string]float64
	Threshold  float64
}

// SelectFeatures fits a gradient boosted ensemble on X and keeps the columns
// whose gain importance is at least the mean importance, in their original
// order. names labels the columns of X.
func SelectFeatures(
	X mat.Matrix,
	y []float64,
	names []string,
	params config.BoosterConfig,
	pool *parallel.WorkerPool,
) (*FeatureMask, error) {
	const op = "SelectFeatures"

	if _, cols := X.Dims(); cols != len(names) {
		return nil, errors.NewSchemaMismatchError(op, "",
			fmt.Sprintf("%d column names for %d design columns", len(names), cols))
	}

	booster := NewGradientBoosting(params, pool)
	if err := booster.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fitting selection booster: %w", err)
	}

	importance := booster.FeatureImportance()
	threshold := stat.Mean(importance, nil)

	mask := &FeatureMask{
		Importance: make(map[string]float64, len(names)),
		Threshold:  threshold,
	}
	for j, name := range names {
		mask.Importance[name] = importance[j]
		if importance[j] >= threshold {
			mask.Names = append(mask.Names, name)
		}
	}
	return mask, nil
}

// Apply projects df onto the mask's columns.
func (m *FeatureMask) Apply(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	out, err := df.Select(m.Names...)
	if err != nil {
		return nil, fmt.Errorf("applying feature mask: %w", err)
	}
	return out, nil
}
