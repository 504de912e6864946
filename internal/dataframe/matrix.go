package dataframe

import (
	"fmt"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
	"gonum.org/v1/gonum/mat"
)

// ToMatrix converts the frame into a dense row-major design matrix. Numeric
// columns are copied as is and boolean columns become 0/1. Categorical
// columns and null cells cannot be represented and fail with a ModelFitError.
func (df *DataFrame) ToMatrix() (*mat.Dense, error) {
	rows, cols := df.Len(), df.Width()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelFitError("ToMatrix",
			fmt.Sprintf("design matrix is empty (%dx%d)", rows, cols), nil)
	}

	data := make([]float64, rows*cols)
	for j, name := range df.order {
		s := df.columns[name]
		if s.NullN() > 0 {
			return nil, &errors.PipelineError{
				Kind:    errors.KindModelFit,
				Op:      "ToMatrix",
				Column:  name,
				Message: fmt.Sprintf("%d null values left after feature engineering", s.NullN()),
			}
		}
		switch typed := s.(type) {
		case *series.Series[float64]:
			for i := 0; i < rows; i++ {
				data[i*cols+j] = typed.Value(i)
			}
		case *series.Series[bool]:
			for i := 0; i < rows; i++ {
				if typed.Value(i) {
					data[i*cols+j] = 1
				}
			}
		default:
			return nil, &errors.PipelineError{
				Kind:    errors.KindModelFit,
				Op:      "ToMatrix",
				Column:  name,
				Message: fmt.Sprintf("%s column cannot enter the design matrix", s.Kind()),
			}
		}
	}
	return mat.NewDense(rows, cols, data), nil
}
