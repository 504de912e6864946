package model

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/scigo/linear"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rankTolerance is the singular value cutoff, relative to the largest
// singular value, below which a direction of the design counts as null.
const rankTolerance = 1e-10

// Solvers reported by LinearRegression.Solver.
const (
	SolverOLS     = "ols"
	SolverMinNorm = "min-norm"
)

// LinearRegression is an ordinary least squares model with an intercept.
//
// Designs with full column rank are fitted by the scigo estimator. Collinear
// designs (one-hot blocks, derived powers) have no unique solution and get
// the minimum-norm least squares solution on the centered design instead.
type LinearRegression struct {
	coef      []float64
	intercept float64
	solver    string
	fitted    bool
}

// NewLinearRegression returns an unfitted model.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Coefficients returns a copy of the fitted coefficients, one per column.
func (m *LinearRegression) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

// Intercept returns the fitted intercept.
func (m *LinearRegression) Intercept() float64 {
	return m.intercept
}

// Solver names the solver used by the last Fit.
func (m *LinearRegression) Solver() string {
	return m.solver
}

// Fit estimates the coefficients from the design X and labels y.
func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	const op = "LinearRegression.Fit"

	if err := checkDesign(op, X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()

	means := make([]float64, cols)
	centered := mat.NewDense(rows, cols, nil)
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, X)
		means[j] = stat.Mean(column, nil)
		for i, v := range column {
			centered.Set(i, j, v-means[j])
		}
	}

	yMean := stat.Mean(y, nil)
	target := mat.NewDense(rows, 1, nil)
	for i, v := range y {
		target.Set(i, 0, v-yMean)
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return errors.NewModelFitError(op, "SVD factorization did not converge", nil)
	}
	rank := svd.Rank(rankTolerance)
	if rank == cols {
		coef, intercept, err := fitOLS(X, y)
		if err != nil {
			return errors.NewModelFitError(op, "least squares fit failed", err)
		}
		m.coef, m.intercept, m.solver, m.fitted = coef, intercept, SolverOLS, true
		return nil
	}

	coef := make([]float64, cols)
	if rank > 0 {
		var beta mat.Dense
		svd.SolveTo(&beta, target, rank)
		mat.Col(coef, 0, &beta)
	}

	intercept := yMean
	for j, b := range coef {
		intercept -= means[j] * b
	}

	m.coef, m.intercept, m.solver, m.fitted = coef, intercept, SolverMinNorm, true
	return nil
}

// fitOLS fits the scigo estimator and reads its parameters back by
// predicting the origin and each unit vector.
func fitOLS(X mat.Matrix, y []float64) ([]float64, float64, error) {
	rows, cols := X.Dims()

	est := linear.NewLinearRegression()
	if err := est.Fit(X, mat.NewDense(rows, 1, append([]float64(nil), y...))); err != nil {
		return nil, 0, err
	}

	basis := mat.NewDense(cols+1, cols, nil)
	for j := 0; j < cols; j++ {
		basis.Set(j+1, j, 1)
	}
	out, err := est.Predict(basis)
	if err != nil {
		return nil, 0, err
	}

	intercept := out.At(0, 0)
	coef := make([]float64, cols)
	for j := range coef {
		coef[j] = out.At(j+1, 0) - intercept
	}
	return coef, intercept, nil
}

// Predict returns X·coef + intercept for every row of X.
func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	const op = "LinearRegression.Predict"

	if !m.fitted {
		return nil, errors.NewModelFitError(op, "model has not been fitted", nil)
	}
	rows, cols := X.Dims()
	if cols != len(m.coef) {
		return nil, errors.NewModelFitError(op,
			fmt.Sprintf("design has %d columns, model was fitted on %d", cols, len(m.coef)), nil)
	}

	var out mat.VecDense
	out.MulVec(X, mat.NewVecDense(cols, m.Coefficients()))
	predictions := make([]float64, rows)
	for i := range predictions {
		predictions[i] = out.AtVec(i) + m.intercept
	}
	return predictions, nil
}

// checkDesign rejects designs the solvers cannot fit: no rows, a label count
// that differs from the row count, or non-finite values.
func checkDesign(op string, X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelFitError(op, fmt.Sprintf("design matrix is empty (%dx%d)", rows, cols), nil)
	}
	if len(y) != rows {
		return errors.NewModelFitError(op, fmt.Sprintf("%d labels for %d rows", len(y), rows), nil)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewModelFitError(op, fmt.Sprintf("label %d is not finite", i), nil)
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewModelFitError(op,
					fmt.Sprintf("design value at row %d, column %d is not finite", i, j), nil)
			}
		}
	}
	return nil
}
