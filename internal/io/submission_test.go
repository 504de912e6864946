package io_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSubmission(t *testing.T) {
	var buf bytes.Buffer
	err := io.WriteSubmission(&buf, []float64{120500.5, 158000, 181234.25}, 3, 1461)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Id,SalePrice", lines[0])
	assert.Equal(t, "1461,120500.5", lines[1])
	assert.Equal(t, "1462,158000", lines[2])
	assert.Equal(t, "1463,181234.25", lines[3])
}

func TestWriteSubmissionRowCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	err := io.WriteSubmission(&buf, []float64{1, 2}, 3, 1461)
	assert.ErrorIs(t, err, errors.ErrSchemaMismatch)
	assert.Empty(t, buf.String())
}

func TestWriteSubmissionFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "submission.csv")

	require.NoError(t, io.WriteSubmissionFile(path, []float64{1}, 1, 1461))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Id,SalePrice\n1461,1\n", string(data))

	err = io.WriteSubmissionFile(filepath.Join(dir, "missing", "submission.csv"), []float64{1}, 1, 1461)
	assert.ErrorIs(t, err, errors.ErrDataAccess)
}
