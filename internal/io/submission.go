package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gangfang/kaggle-scripts/internal/errors"
)

// SubmissionHeader is the first line of every submission file.
const SubmissionHeader = "Id,SalePrice"

// WriteSubmission writes one "id,value" line per prediction after the
// header, with ids running from startID to startID+rowCount-1.
func WriteSubmission(w io.Writer, predictions []float64, rowCount, startID int) error {
	if len(predictions) != rowCount {
		return errors.NewSchemaMismatchError("WriteSubmission", "",
			fmt.Sprintf("%d predictions for %d prediction rows", len(predictions), rowCount))
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(SubmissionHeader + "\n"); err != nil {
		return errors.NewDataAccessError("WriteSubmission", "writing header", err)
	}
	for i, v := range predictions {
		line := strconv.Itoa(startID+i) + "," + strconv.FormatFloat(v, 'f', -1, 64) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return errors.NewDataAccessError("WriteSubmission", fmt.Sprintf("writing row %d", i), err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.NewDataAccessError("WriteSubmission", "flushing output", err)
	}
	return nil
}

// WriteSubmissionFile creates path and writes the submission into it.
func WriteSubmissionFile(path string, predictions []float64, rowCount, startID int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewDataAccessError("WriteSubmission", fmt.Sprintf("creating %s", path), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.NewDataAccessError("WriteSubmission", fmt.Sprintf("closing %s", path), closeErr)
		}
	}()
	return WriteSubmission(f, predictions, rowCount, startID)
}
