// Package pipeline runs the house price workflow end to end: load both
// tables, engineer features on the combined rows, optionally select
// features with a boosted ensemble, cross-validate, fit the linear model
// and write the submission.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/features"
	"github.com/gangfang/kaggle-scripts/internal/io"
	"github.com/gangfang/kaggle-scripts/internal/model"
	"github.com/gangfang/kaggle-scripts/internal/monitoring"
	"github.com/gangfang/kaggle-scripts/internal/parallel"
	"github.com/google/uuid"
)

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Profile     string
	TrainRows   int
	PredictRows int
	Features    []string
	CV          *model.CVResult
	Predictions []float64
	OutputPath  string
	Metrics     monitoring.MetricsSummary
}

// Options carries the run's collaborators. Zero values get defaults: a
// text logger on stderr and the Go allocator.
type Options struct {
	Logger    *slog.Logger
	Allocator memory.Allocator
}

// Pipeline executes one run for a configuration and profile.
type Pipeline struct {
	cfg     config.Config
	profile *config.Profile
	runID   string
	logger  *slog.Logger
	mem     memory.Allocator
	metrics *monitoring.MetricsCollector
}

// New validates cfg, resolves its profile and prepares a run.
func New(cfg config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := config.LoadProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(cfg.VerboseLogging)
	}
	mem := opts.Allocator
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	return &Pipeline{
		cfg:     cfg,
		profile: profile,
		runID:   runID,
		logger:  logger.With("run_id", runID, "profile", profile.Name),
		mem:     mem,
		metrics: monitoring.NewMetricsCollector(cfg.MetricsCollection),
	}, nil
}

// NewLogger returns the text logger used for runs, at debug level when
// verbose is set.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Profile returns the resolved profile.
func (p *Pipeline) Profile() *config.Profile {
	return p.profile
}

// Run executes every stage in order. ctx is checked between stages.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	pool := parallel.NewWorkerPool(p.cfg.WorkerPoolSize)
	defer pool.Close()

	state := &State{}
	defer state.Release()

	p.logger.Info("run started",
		"train", p.cfg.TrainPath,
		"test", p.cfg.TestPath,
		"workers", pool.Workers())

	stages := []struct {
		name string
		fn   func(*State) (monitoring.Shape, error)
		skip bool
	}{
		{name: "load", fn: p.load},
		{name: "outliers", fn: p.removeOutliers, skip: p.profile.Outlier == nil},
		{name: "merge", fn: p.merge},
		{name: "impute", fn: p.impute},
		{name: "synthesize", fn: p.synthesize},
		{name: "encode", fn: p.encode},
		{name: "export", fn: p.export, skip: p.cfg.FeaturesPath == ""},
		{name: "split", fn: p.split},
		{name: "target", fn: p.target},
		{name: "select", fn: func(s *State) (monitoring.Shape, error) {
			return p.selectFeatures(s, pool)
		}, skip: !p.profile.SelectFeatures},
		{name: "crossval", fn: func(s *State) (monitoring.Shape, error) {
			return p.crossValidate(s, pool)
		}},
		{name: "fit", fn: p.fit},
		{name: "predict", fn: p.predict},
		{name: "write", fn: p.write},
	}

	for _, stage := range stages {
		if stage.skip {
			p.logger.Debug("stage skipped", "stage", stage.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := p.metrics.RecordOperation(stage.name, func() (monitoring.Shape, error) {
			shape, err := stage.fn(state)
			if err == nil {
				p.logger.Info("stage completed", "stage", stage.name, "rows", shape.Rows, "cols", shape.Columns)
			}
			return shape, err
		})
		if err != nil {
			p.logger.Error("stage failed", "stage", stage.name, "error", err)
			return nil, fmt.Errorf("%s stage: %w", stage.name, err)
		}
	}

	if p.metrics.IsEnabled() {
		p.metrics.LogSummary(p.logger)
	}

	return &Result{
		RunID:       p.runID,
		Profile:     p.profile.Name,
		TrainRows:   len(state.Target),
		PredictRows: len(state.Predictions),
		Features:    state.Features,
		CV:          state.CV,
		Predictions: state.Predictions,
		OutputPath:  p.cfg.OutputPath,
		Metrics:     p.metrics.GetSummary(),
	}, nil
}

func shapeOf(df *dataframe.DataFrame) monitoring.Shape {
	return monitoring.Shape{Rows: df.Len(), Columns: df.Width()}
}

func (p *Pipeline) load(s *State) (monitoring.Shape, error) {
	ds, err := io.LoadDataset(p.cfg.TrainPath, p.cfg.TestPath, p.profile.Label, p.profile.IDColumn, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.Train, s.Predict, s.Labels = ds.Train, ds.Predict, ds.Labels
	s.TrainIDs, s.PredictIDs = ds.TrainIDs, ds.PredictIDs

	p.logger.Debug("tables loaded",
		"train_rows", s.Train.Len(),
		"predict_rows", s.Predict.Len(),
		"train_ids", len(s.TrainIDs),
		"predict_ids", len(s.PredictIDs))
	return shapeOf(s.Train), nil
}

func (p *Pipeline) removeOutliers(s *State) (monitoring.Shape, error) {
	rule := p.profile.Outlier
	before := s.Train.Len()

	train, labels, err := features.RemoveOutliers(s.Train, s.Labels, rule.Column, rule.Threshold, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.replaceTrain(train)
	s.Labels = labels

	p.logger.Debug("outliers removed", "column", rule.Column, "threshold", rule.Threshold, "removed", before-train.Len())
	return shapeOf(s.Train), nil
}

func (p *Pipeline) merge(s *State) (monitoring.Shape, error) {
	combined, err := features.Merge(s.Train, s.Predict, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.Train.Release()
	s.Predict.Release()
	s.Train, s.Predict = nil, nil
	s.Combined = combined

	p.logger.Debug("tables merged", "split_point", combined.SplitPoint)
	return shapeOf(combined.Frame), nil
}

func (p *Pipeline) impute(s *State) (monitoring.Shape, error) {
	out, err := features.Impute(s.Combined.Frame, p.profile.Impute, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.replaceFrame(out)
	return shapeOf(out), nil
}

func (p *Pipeline) synthesize(s *State) (monitoring.Shape, error) {
	out, err := features.Synthesize(s.Combined.Frame, p.profile, s.Combined.SplitPoint, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.replaceFrame(out)
	return shapeOf(out), nil
}

func (p *Pipeline) encode(s *State) (monitoring.Shape, error) {
	encoded, err := features.OneHot(s.Combined.Frame, p.profile.OneHot, p.mem)
	if err != nil {
		return monitoring.Shape{}, err
	}
	out, err := encoded.Drop(p.profile.Drop...)
	encoded.Release()
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.replaceFrame(out)
	return shapeOf(out), nil
}

func (p *Pipeline) export(s *State) (monitoring.Shape, error) {
	if err := io.WriteParquetFile(p.cfg.FeaturesPath, s.Combined.Frame, io.DefaultParquetOptions()); err != nil {
		return monitoring.Shape{}, err
	}
	p.logger.Info("features exported", "path", p.cfg.FeaturesPath)
	return shapeOf(s.Combined.Frame), nil
}

func (p *Pipeline) split(s *State) (monitoring.Shape, error) {
	s.Train, s.Predict = s.Combined.Split()
	s.Combined.Release()
	s.Combined = nil

	var err error
	if s.TrainX, err = s.Train.ToMatrix(); err != nil {
		return monitoring.Shape{}, fmt.Errorf("training block: %w", err)
	}
	if s.PredictX, err = s.Predict.ToMatrix(); err != nil {
		return monitoring.Shape{}, fmt.Errorf("prediction block: %w", err)
	}
	s.Features = s.Train.Columns()
	return shapeOf(s.Train), nil
}

func (p *Pipeline) target(s *State) (monitoring.Shape, error) {
	s.Target = s.Labels
	if p.profile.LogTarget {
		s.Target = model.Log1p(s.Labels)
	}
	return monitoring.Shape{Rows: len(s.Target), Columns: 1}, nil
}

func (p *Pipeline) selectFeatures(s *State, pool *parallel.WorkerPool) (monitoring.Shape, error) {
	mask, err := model.SelectFeatures(s.TrainX, s.Target, s.Features, p.cfg.Booster, pool)
	if err != nil {
		return monitoring.Shape{}, err
	}

	train, err := mask.Apply(s.Train)
	if err != nil {
		return monitoring.Shape{}, err
	}
	predict, err := mask.Apply(s.Predict)
	if err != nil {
		train.Release()
		return monitoring.Shape{}, err
	}
	s.replaceTrain(train)
	s.Predict.Release()
	s.Predict = predict

	if s.TrainX, err = s.Train.ToMatrix(); err != nil {
		return monitoring.Shape{}, err
	}
	if s.PredictX, err = s.Predict.ToMatrix(); err != nil {
		return monitoring.Shape{}, err
	}
	s.Mask = mask
	s.Features = mask.Names

	p.logger.Info("features selected",
		"kept", len(mask.Names),
		"of", len(mask.Importance),
		"threshold", mask.Threshold)
	return shapeOf(s.Train), nil
}

func (p *Pipeline) crossValidate(s *State, pool *parallel.WorkerPool) (monitoring.Shape, error) {
	cv, err := model.CrossValidate(s.TrainX, s.Target, p.cfg.CVFolds, pool)
	if err != nil {
		return monitoring.Shape{}, err
	}
	s.CV = cv
	for i, fold := range cv.Folds {
		p.logger.Debug("fold scored", "fold", i+1, "train_rmse", fold.TrainRMSE, "test_rmse", fold.TestRMSE)
	}
	return shapeOf(s.Train), nil
}

func (p *Pipeline) fit(s *State) (monitoring.Shape, error) {
	lr := model.NewLinearRegression()
	if err := lr.Fit(s.TrainX, s.Target); err != nil {
		return monitoring.Shape{}, err
	}
	p.logger.Debug("model fitted", "solver", lr.Solver(), "intercept", lr.Intercept())
	s.Model = lr
	return shapeOf(s.Train), nil
}

func (p *Pipeline) predict(s *State) (monitoring.Shape, error) {
	predictions, err := s.Model.Predict(s.PredictX)
	if err != nil {
		return monitoring.Shape{}, err
	}
	if p.profile.LogTarget {
		predictions = model.Expm1(predictions)
	}
	s.Predictions = predictions
	return shapeOf(s.Predict), nil
}

func (p *Pipeline) write(s *State) (monitoring.Shape, error) {
	if err := io.WriteSubmissionFile(p.cfg.OutputPath, s.Predictions, s.Predict.Len(), p.cfg.StartID); err != nil {
		return monitoring.Shape{}, err
	}
	p.logger.Info("submission written", "path", p.cfg.OutputPath, "rows", len(s.Predictions))
	return monitoring.Shape{Rows: len(s.Predictions), Columns: 2}, nil
}
