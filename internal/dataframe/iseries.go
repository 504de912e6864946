package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/gangfang/kaggle-scripts/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	NullN() int
	Kind() series.Kind
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// renamed returns a new reference to s's data under name. The caller owns
// the returned series.
func renamed(s ISeries, name string) ISeries {
	switch typed := s.(type) {
	case *series.Series[float64]:
		return typed.Rename(name)
	case *series.Series[string]:
		return typed.Rename(name)
	case *series.Series[bool]:
		return typed.Rename(name)
	default:
		panic("dataframe: unsupported series implementation")
	}
}

// retained returns a new reference to s under its own name.
func retained(s ISeries) ISeries {
	return renamed(s, s.Name())
}
