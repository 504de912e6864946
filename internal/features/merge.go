package features

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/gangfang/kaggle-scripts/internal/dataframe"
	"github.com/gangfang/kaggle-scripts/internal/errors"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// Combined is the training block stacked on top of the prediction block.
// Rows [0, SplitPoint) came from the training table.
type Combined struct {
	Frame      *dataframe.DataFrame
	SplitPoint int
}

// Merge stacks predict under train. Both tables must carry the same column
// names; predict's columns are reordered to train's order. Column kinds must
// match, except that a column which is entirely null on one side takes the
// other side's kind.
func Merge(train, predict *dataframe.DataFrame, mem memory.Allocator) (*Combined, error) {
	const op = "Merge"

	if err := sameColumnSet(train, predict); err != nil {
		return nil, err
	}

	top := train.Clone()
	bottom, err := predict.Select(train.Columns()...)
	if err != nil {
		top.Release()
		return nil, err
	}

	for _, name := range train.Columns() {
		tk, _ := top.ColumnKind(name)
		bk, _ := bottom.ColumnKind(name)
		if tk == bk {
			continue
		}

		switch {
		case top.NullCount(name) == top.Len():
			err = replaceColumn(&top, nullColumn(name, bk, top.Len(), mem))
		case bottom.NullCount(name) == bottom.Len():
			err = replaceColumn(&bottom, nullColumn(name, tk, bottom.Len(), mem))
		default:
			err = errors.NewSchemaMismatchError(op, name,
				fmt.Sprintf("kind differs between tables: %s vs %s", tk, bk))
		}
		if err != nil {
			top.Release()
			bottom.Release()
			return nil, err
		}
	}

	frame, err := top.Concat(bottom, mem)
	top.Release()
	bottom.Release()
	if err != nil {
		return nil, err
	}
	return &Combined{Frame: frame, SplitPoint: train.Len()}, nil
}

// Split returns the training and prediction blocks. Both share memory with
// the combined frame and must be released independently.
func (c *Combined) Split() (train, predict *dataframe.DataFrame) {
	return c.Frame.Slice(0, c.SplitPoint), c.Frame.Slice(c.SplitPoint, c.Frame.Len())
}

// WithFrame returns a Combined holding frame at the same split point.
func (c *Combined) WithFrame(frame *dataframe.DataFrame) *Combined {
	return &Combined{Frame: frame, SplitPoint: c.SplitPoint}
}

// Release releases the combined frame.
func (c *Combined) Release() {
	if c.Frame != nil {
		c.Frame.Release()
	}
}

func sameColumnSet(train, predict *dataframe.DataFrame) error {
	for _, name := range train.Columns() {
		if !predict.HasColumn(name) {
			return errors.NewSchemaMismatchError("Merge", name, "missing from prediction table")
		}
	}
	for _, name := range predict.Columns() {
		if !train.HasColumn(name) {
			return errors.NewSchemaMismatchError("Merge", name, "missing from training table")
		}
	}
	return nil
}

// replaceColumn swaps col into *df, releasing the previous frame.
func replaceColumn(df **dataframe.DataFrame, col dataframe.ISeries) error {
	next, err := (*df).WithColumn(col)
	if err != nil {
		col.Release()
		return err
	}
	(*df).Release()
	*df = next
	return nil
}

// nullColumn builds an all-null column of the given kind.
func nullColumn(name string, kind series.Kind, n int, mem memory.Allocator) dataframe.ISeries {
	valid := make([]bool, n)
	switch kind {
	case series.Categorical:
		return series.NewNullable(name, make([]string, n), valid, mem)
	case series.Boolean:
		return series.NewNullable(name, make([]bool, n), valid, mem)
	default:
		return series.NewNullable(name, make([]float64, n), valid, mem)
	}
}
