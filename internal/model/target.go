// Package model fits the pipeline's regressors: an ordinary least squares
// model for the predictions and a gradient-boosted tree ensemble whose gain
// importance chooses the features the linear model sees.
package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Log1p returns log(1+v) for every label. Used to fit on a log scale.
func Log1p(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log1p(v)
	}
	return out
}

// Expm1 inverts Log1p.
func Expm1(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Expm1(v)
	}
	return out
}

// RMSE returns the root mean squared error between predictions and labels,
// which must have the same length. It is 0 for empty inputs.
func RMSE(predictions, labels []float64) float64 {
	if len(predictions) == 0 {
		return 0
	}
	return floats.Distance(predictions, labels, 2) / math.Sqrt(float64(len(predictions)))
}
