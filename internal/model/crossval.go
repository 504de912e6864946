package model

import (
	"fmt"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/parallel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fold is one train/test partition of the row indices.
type Fold struct {
	Train []int
	Test  []int
}

// FoldScore is the error of one fold's model on its own training rows and
// on the held-out rows.
type FoldScore struct {
	TrainRMSE float64
	TestRMSE  float64
}

// CVResult collects the fold scores and their means.
type CVResult struct {
	Folds     []FoldScore
	TrainRMSE float64
	TestRMSE  float64
}

// KFold splits n rows into k contiguous, unshuffled folds. The first n%k
// folds hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, errors.NewConfigError("KFold", fmt.Sprintf("need at least 2 folds, got %d", k), nil)
	}
	if n < k {
		return nil, errors.NewModelFitError("KFold", fmt.Sprintf("cannot split %d rows into %d folds", n, k), nil)
	}

	folds := make([]Fold, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		end := start + size
		for i := 0; i < n; i++ {
			if i >= start && i < end {
				folds[f].Test = append(folds[f].Test, i)
			} else {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
		start = end
	}
	return folds, nil
}

// CrossValidate fits a LinearRegression on every K-fold training partition
// and scores it on both partitions. Folds run on pool; the result does not
// depend on the number of workers.
func CrossValidate(X mat.Matrix, y []float64, k int, pool *parallel.WorkerPool) (*CVResult, error) {
	const op = "CrossValidate"

	if err := checkDesign(op, X, y); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	folds, err := KFold(rows, k)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		score FoldScore
		err   error
	}
	outcomes := parallel.ProcessIndexed(pool, folds, func(f int, fold Fold) outcome {
		score, err := scoreFold(X, y, fold)
		if err != nil {
			err = fmt.Errorf("fold %d: %w", f+1, err)
		}
		return outcome{score: score, err: err}
	})

	result := &CVResult{Folds: make([]FoldScore, len(folds))}
	trainScores := make([]float64, len(folds))
	testScores := make([]float64, len(folds))
	for f, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		result.Folds[f] = o.score
		trainScores[f] = o.score.TrainRMSE
		testScores[f] = o.score.TestRMSE
	}
	result.TrainRMSE = stat.Mean(trainScores, nil)
	result.TestRMSE = stat.Mean(testScores, nil)
	return result, nil
}

func scoreFold(X mat.Matrix, y []float64, fold Fold) (FoldScore, error) {
	trainX, trainY := takeRows(X, y, fold.Train)
	testX, testY := takeRows(X, y, fold.Test)

	lr := NewLinearRegression()
	if err := lr.Fit(trainX, trainY); err != nil {
		return FoldScore{}, err
	}
	trainPred, err := lr.Predict(trainX)
	if err != nil {
		return FoldScore{}, err
	}
	testPred, err := lr.Predict(testX)
	if err != nil {
		return FoldScore{}, err
	}
	return FoldScore{
		TrainRMSE: RMSE(trainPred, trainY),
		TestRMSE:  RMSE(testPred, testY),
	}, nil
}

func takeRows(X mat.Matrix, y []float64, rows []int) (*mat.Dense, []float64) {
	_, cols := X.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	labels := make([]float64, len(rows))
	for r, i := range rows {
		for j := 0; j < cols; j++ {
			out.Set(r, j, X.At(i, j))
		}
		labels[r] = y[i]
	}
	return out, labels
}
