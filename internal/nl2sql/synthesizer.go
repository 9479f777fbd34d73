package nl2sql

import (
	"context"

	"github.com/datachat/datachat/internal/llm"
)

type Request struct {
	// Schema is the fixed descriptor of the loaded table.
	Schema string
	// Table is the one table every synthesized query must target.
	Table string
	// History holds the prior conversation turns, oldest first. The latest
	// user question is passed separately.
	History []llm.Message
	// PinnedTurn is the index within History of the user turn that produced
	// the current artifact, or -1 when there is none. It survives windowing.
	PinnedTurn int
	Question   string
}

type Result struct {
	SQL    string
	Model  string
	Cached bool
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
}
