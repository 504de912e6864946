// Package config provides run configuration and pipeline profiles for the house price pipeline
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the run configuration
type Config struct {
	// Input and output locations
	TrainPath    string `json:"train_path" yaml:"train_path"`       // Training CSV with features, label and id
	TestPath     string `json:"test_path" yaml:"test_path"`         // Prediction CSV with features and id
	OutputPath   string `json:"output_path" yaml:"output_path"`     // Submission CSV
	FeaturesPath string `json:"features_path" yaml:"features_path"` // Optional Parquet dump of the engineered table

	// Pipeline shape
	Profile string `json:"profile" yaml:"profile"`   // Built-in profile name or path to a profile YAML
	StartID int    `json:"start_id" yaml:"start_id"` // First id written to the submission
	CVFolds int    `json:"cv_folds" yaml:"cv_folds"` // Number of cross-validation folds

	// Booster used for feature selection
	Booster BoosterConfig `json:"booster" yaml:"booster"`

	// Execution
	WorkerPoolSize    int  `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable debug logging
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Log per-stage metrics at the end of the run
}

// BoosterConfig holds the gradient boosting hyperparameters
type BoosterConfig struct {
	Rounds         int     `json:"rounds" yaml:"rounds"`
	MaxDepth       int     `json:"max_depth" yaml:"max_depth"`
	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	Lambda         float64 `json:"lambda" yaml:"lambda"`
	Gamma          float64 `json:"gamma" yaml:"gamma"`
	MinChildWeight float64 `json:"min_child_weight" yaml:"min_child_weight"`
}

// Default configuration values
const (
	DefaultTrainPath      = "train.csv"
	DefaultTestPath       = "test.csv"
	DefaultOutputPath     = "submission.csv"
	DefaultProfile        = "full"
	DefaultStartID        = 1461
	DefaultCVFolds        = 10
	DefaultRounds         = 100
	DefaultMaxDepth       = 6
	DefaultLearningRate   = 0.3
	DefaultLambda         = 1.0
	DefaultMinChildWeight = 1.0
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv
const EnvPrefix = "HOUSEPRICE_"

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		TrainPath:  DefaultTrainPath,
		TestPath:   DefaultTestPath,
		OutputPath: DefaultOutputPath,
		Profile:    DefaultProfile,
		StartID:    DefaultStartID,
		CVFolds:    DefaultCVFolds,
		Booster:    NewBoosterConfig(),
	}
}

// NewBoosterConfig returns the default booster hyperparameters
func NewBoosterConfig() BoosterConfig {
	return BoosterConfig{
		Rounds:         DefaultRounds,
		MaxDepth:       DefaultMaxDepth,
		LearningRate:   DefaultLearningRate,
		Lambda:         DefaultLambda,
		Gamma:          0,
		MinChildWeight: DefaultMinChildWeight,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	const op = "validate config"

	if c.TrainPath == "" {
		return errors.NewConfigError(op, "TrainPath must not be empty", nil)
	}
	if c.TestPath == "" {
		return errors.NewConfigError(op, "TestPath must not be empty", nil)
	}
	if c.OutputPath == "" {
		return errors.NewConfigError(op, "OutputPath must not be empty", nil)
	}
	if c.Profile == "" {
		return errors.NewConfigError(op, "Profile must not be empty", nil)
	}
	if c.StartID < 0 {
		return errors.NewConfigError(op, fmt.Sprintf("StartID must be non-negative, got %d", c.StartID), nil)
	}
	if c.CVFolds < 2 {
		return errors.NewConfigError(op, fmt.Sprintf("CVFolds must be at least 2, got %d", c.CVFolds), nil)
	}
	if c.WorkerPoolSize < 0 {
		return errors.NewConfigError(op, fmt.Sprintf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize), nil)
	}

	return c.Booster.Validate()
}

// Validate validates the booster hyperparameters
func (b *BoosterConfig) Validate() error {
	const op = "validate booster config"

	if b.Rounds <= 0 {
		return errors.NewConfigError(op, fmt.Sprintf("Rounds must be positive, got %d", b.Rounds), nil)
	}
	if b.MaxDepth <= 0 {
		return errors.NewConfigError(op, fmt.Sprintf("MaxDepth must be positive, got %d", b.MaxDepth), nil)
	}
	if b.LearningRate <= 0 || b.LearningRate > 1 {
		return errors.NewConfigError(op, fmt.Sprintf("LearningRate must be in (0, 1], got %f", b.LearningRate), nil)
	}
	if b.Lambda < 0 {
		return errors.NewConfigError(op, fmt.Sprintf("Lambda must be non-negative, got %f", b.Lambda), nil)
	}
	if b.Gamma < 0 {
		return errors.NewConfigError(op, fmt.Sprintf("Gamma must be non-negative, got %f", b.Gamma), nil)
	}
	if b.MinChildWeight < 0 {
		return errors.NewConfigError(op, fmt.Sprintf("MinChildWeight must be non-negative, got %f", b.MinChildWeight), nil)
	}
	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.TrainPath == "" {
		c.TrainPath = defaults.TrainPath
	}
	if c.TestPath == "" {
		c.TestPath = defaults.TestPath
	}
	if c.OutputPath == "" {
		c.OutputPath = defaults.OutputPath
	}
	if c.Profile == "" {
		c.Profile = defaults.Profile
	}
	if c.CVFolds == 0 {
		c.CVFolds = defaults.CVFolds
	}
	if c.Booster.Rounds == 0 {
		c.Booster.Rounds = defaults.Booster.Rounds
	}
	if c.Booster.MaxDepth == 0 {
		c.Booster.MaxDepth = defaults.Booster.MaxDepth
	}
	if c.Booster.LearningRate == 0 {
		c.Booster.LearningRate = defaults.Booster.LearningRate
	}
	if c.Booster.Lambda == 0 {
		c.Booster.Lambda = defaults.Booster.Lambda
	}
	if c.Booster.MinChildWeight == 0 {
		c.Booster.MinChildWeight = defaults.Booster.MinChildWeight
	}

	// StartID, Gamma, FeaturesPath and the booleans keep their zero values; zero is a valid setting for each.
	return c
}

// LoadFromFile loads configuration from a file (supports JSON and YAML).
// The file is decoded over NewConfig, so absent keys keep their defaults
// and explicit zeros such as start_id: 0 survive.
func LoadFromFile(filename string) (Config, error) {
	const op = "load config"

	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.NewConfigError(op, fmt.Sprintf("reading config file %s", filename), err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, errors.NewConfigError(op, fmt.Sprintf("unsupported config file format: %s", ext), nil)
	}

	if err != nil {
		return Config{}, errors.NewConfigError(op, fmt.Sprintf("parsing config file %s", filename), err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from environment variables on top of the defaults
func LoadFromEnv() Config {
	return ApplyEnv(NewConfig())
}

// ApplyEnv overrides fields of config with any HOUSEPRICE_* environment variables that are set.
// Unparseable values are ignored.
func ApplyEnv(config Config) Config {
	if val, ok := lookupEnv("TRAIN_PATH"); ok {
		config.TrainPath = val
	}
	if val, ok := lookupEnv("TEST_PATH"); ok {
		config.TestPath = val
	}
	if val, ok := lookupEnv("OUTPUT_PATH"); ok {
		config.OutputPath = val
	}
	if val, ok := lookupEnv("FEATURES_PATH"); ok {
		config.FeaturesPath = val
	}
	if val, ok := lookupEnv("PROFILE"); ok {
		config.Profile = val
	}

	envInt("START_ID", &config.StartID)
	envInt("CV_FOLDS", &config.CVFolds)
	envInt("WORKER_POOL_SIZE", &config.WorkerPoolSize)

	envInt("BOOSTER_ROUNDS", &config.Booster.Rounds)
	envInt("BOOSTER_MAX_DEPTH", &config.Booster.MaxDepth)
	envFloat("BOOSTER_LEARNING_RATE", &config.Booster.LearningRate)
	envFloat("BOOSTER_LAMBDA", &config.Booster.Lambda)
	envFloat("BOOSTER_GAMMA", &config.Booster.Gamma)
	envFloat("BOOSTER_MIN_CHILD_WEIGHT", &config.Booster.MinChildWeight)

	envBool("VERBOSE_LOGGING", &config.VerboseLogging)
	envBool("METRICS_COLLECTION", &config.MetricsCollection)

	return config
}

func lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func envInt(key string, dst *int) {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func envFloat(key string, dst *float64) {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if val, ok := lookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*dst = parsed
		}
	}
}
