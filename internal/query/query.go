package query

import (
	"context"
	"errors"
	"time"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Empty reports whether the query succeeded but matched no rows. Column
// metadata is still present so callers can render an empty table.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// IsTimeout reports whether an execution error was caused by the per-query
// deadline rather than by the statement itself.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
