package pipeline

import (
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/features"
	"github.com/gangfang/kaggle-scripts/internal/model"
	"gonum.org/v1/gonum/mat"
)

// State is threaded through the stages of one run. Each stage reads the
// fields earlier stages filled and replaces the ones it transforms.
type State struct {
	Train   *dataframe.DataFrame
	Predict *dataframe.DataFrame
	Labels  []float64

	TrainIDs   []string
	PredictIDs []string

	Combined *features.Combined

	TrainX   *mat.Dense
	PredictX *mat.Dense
	Features []string
	Target   []float64

	Mask        *model.FeatureMask
	CV          *model.CVResult
	Model       *model.LinearRegression
	Predictions []float64
}

// Release releases every table the state still holds.
func (s *State) Release() {
	if s.Train != nil {
		s.Train.Release()
		s.Train = nil
	}
	if s.Predict != nil {
		s.Predict.Release()
		s.Predict = nil
	}
	if s.Combined != nil {
		s.Combined.Release()
		s.Combined = nil
	}
}

func (s *State) replaceTrain(df *dataframe.DataFrame) {
	s.Train.Release()
	s.Train = df
}

func (s *State) replaceFrame(df *dataframe.DataFrame) {
	next := s.Combined.WithFrame(df)
	s.Combined.Release()
	s.Combined = next
}
