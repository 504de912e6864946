package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gangfang/kaggle-scripts/internal/config"
	"github.com/gangfang/kaggle-scripts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "run.yaml", `
train_path: from-file.csv
test_path: file-test.csv
profile: baseline
cv_folds: 5
`)
	t.Setenv(config.EnvPrefix+"TEST_PATH", "env-test.csv")
	t.Setenv(config.EnvPrefix+"PROFILE", "full")

	cfg, err := resolveConfig(&cliFlags{config: path, profile: "flag-profile.yaml"})
	require.NoError(t, err)

	assert.Equal(t, "from-file.csv", cfg.TrainPath)
	assert.Equal(t, "env-test.csv", cfg.TestPath)
	assert.Equal(t, "flag-profile.yaml", cfg.Profile)
	assert.Equal(t, 5, cfg.CVFolds)
	assert.Equal(t, config.DefaultOutputPath, cfg.OutputPath)
}

func TestResolveConfigMissingFile(t *testing.T) {
	_, err := resolveConfig(&cliFlags{config: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "houseprice\n"))
}

func TestRunBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-no-such-flag"}, &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Usage: houseprice")
}

func TestRunPipeline(t *testing.T) {
	dir := t.TempDir()
	train := testutil.WriteFile(t, dir, "train.csv", testutil.HousingCSV(30, 1, true))
	test := testutil.WriteFile(t, dir, "test.csv", testutil.HousingCSV(3, 1461, false))
	out := filepath.Join(dir, "submission.csv")
	t.Setenv(config.EnvPrefix+"BOOSTER_ROUNDS", "5")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-train", train, "-test", test, "-out", out, "-profile", "baseline"},
		&stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "train_RMSE")
	assert.Contains(t, stdout.String(), "File writing done")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}

func TestRunFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-train", filepath.Join(t.TempDir(), "missing.csv"), "-profile", "baseline"},
		&stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error:")
}
