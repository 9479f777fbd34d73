package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/datachat/datachat/internal/chartgen"
	"github.com/datachat/datachat/internal/dataset"
	"github.com/datachat/datachat/internal/insight"
	"github.com/datachat/datachat/internal/llm"
	"github.com/datachat/datachat/internal/nl2sql"
	"github.com/datachat/datachat/internal/observability"
	"github.com/datachat/datachat/internal/query"
	"github.com/datachat/datachat/internal/session"
)

const (
	introResults = "Here are the results of your query:"
	introEmpty   = "The query ran successfully but returned no results."
)

type ErrorKind string

const (
	ErrorKindSynthesis ErrorKind = "query_synthesis"
	ErrorKindExecution ErrorKind = "query_execution"
)

type TurnError struct {
	Kind    ErrorKind
	Message string
}

type Table struct {
	Columns []string
	Rows    [][]any
}

// Response is the complete outcome of one turn. Table and Error are mutually
// exclusive; everything else is optional enrichment.
type Response struct {
	SessionID string
	IntroText string
	Summary   string
	Table     *Table
	Chart     *chartgen.Spec
	QueryText string
	ChartCode string
	Cached    bool
	Error     *TurnError
}

type Options struct {
	Synthesizer nl2sql.Synthesizer
	Engine      query.Engine
	Charts      chartgen.Generator
	Summaries   insight.Summarizer
	Schema      dataset.Schema
	RowLimit    int
	Logger      *slog.Logger
}

// Service orchestrates one conversational turn: resolve or synthesize a
// query, execute it, enrich the result, and commit the turn to the session.
type Service struct {
	synthesizer nl2sql.Synthesizer
	engine      query.Engine
	charts      chartgen.Generator
	summaries   insight.Summarizer
	schema      dataset.Schema
	descriptor  string
	rowLimit    int
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		synthesizer: opts.Synthesizer,
		engine:      opts.Engine,
		charts:      opts.Charts,
		summaries:   opts.Summaries,
		schema:      opts.Schema,
		descriptor:  opts.Schema.Describe(),
		rowLimit:    opts.RowLimit,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Respond processes one user message. Every call appends exactly one user
// and one assistant turn to the session; failures are reported in-band on
// the response rather than as an error.
func (s *Service) Respond(ctx context.Context, sess *session.Session, message string) Response {
	release := sess.BeginTurn()
	defer release()

	started := time.Now()
	priorTurns := sess.History()
	userTurnIndex := len(priorTurns)
	sess.AppendTurn(session.Turn{Role: session.RoleUser, Content: message, CreatedAt: s.now()})

	if prior := sess.Artifact(); prior != nil && chartgen.Suitable(prior.Columns, prior.Rows) {
		if target, ok := classifyRetype(message); ok {
			response := s.revisualize(sess, prior, target, userTurnIndex)
			return s.finish(sess, "revisualize", started, response, response.IntroText)
		}
	}

	synthesisStart := time.Now()
	synthesized, err := s.synthesizer.Synthesize(ctx, nl2sql.Request{
		Schema:     s.descriptor,
		Table:      s.schema.Table,
		History:    toMessages(priorTurns),
		PinnedTurn: pinnedTurn(sess.Artifact()),
		Question:   message,
	})
	observability.ObserveStage("synthesize", time.Since(synthesisStart))
	if err != nil {
		observability.IncrementSynthesisFailure("query")
		s.logger.WarnContext(ctx, "query synthesis failed",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()))
		content := fmt.Sprintf("Query synthesis failed: %s", err.Error())
		response := Response{
			IntroText: content,
			Error:     &TurnError{Kind: ErrorKindSynthesis, Message: err.Error()},
		}
		return s.finish(sess, "synthesis_error", started, response, content)
	}

	executionStart := time.Now()
	result, err := s.engine.Execute(ctx, query.Request{SQL: synthesized.SQL, RowLimit: s.rowLimit})
	observability.ObserveStage("execute", time.Since(executionStart))
	if err != nil {
		s.logger.WarnContext(ctx, "query execution failed",
			slog.String("session_id", sess.ID),
			slog.Bool("timeout", query.IsTimeout(err)),
			slog.String("error", err.Error()))
		content := fmt.Sprintf("The query failed to execute: %s", err.Error())
		response := Response{
			IntroText: content,
			QueryText: synthesized.SQL,
			Cached:    synthesized.Cached,
			Error:     &TurnError{Kind: ErrorKindExecution, Message: err.Error()},
		}
		return s.finish(sess, "execution_error", started, response, content)
	}

	if result.Empty() {
		response := Response{
			IntroText: introEmpty,
			QueryText: synthesized.SQL,
			Cached:    synthesized.Cached,
			Table:     &Table{Columns: result.Columns, Rows: [][]any{}},
		}
		return s.finish(sess, "empty", started, response, introEmpty)
	}

	spec, chartCode, summary := s.enrich(ctx, sess.ID, message, result)

	sess.SetArtifact(&session.Artifact{
		QueryText: synthesized.SQL,
		Columns:   result.Columns,
		Rows:      result.Rows,
		Chart:     spec,
		ChartCode: chartCode,
		Summary:   summary,
		TurnIndex: userTurnIndex,
		CreatedAt: s.now(),
	})

	content := introResults
	if summary != "" {
		content = introResults + "\n\n" + summary
	}
	response := Response{
		IntroText: introResults,
		Summary:   summary,
		Table:     &Table{Columns: result.Columns, Rows: result.Rows},
		Chart:     spec,
		QueryText: synthesized.SQL,
		ChartCode: chartCode,
		Cached:    synthesized.Cached,
	}
	return s.finish(sess, "rows", started, response, content)
}

// enrich runs chart and summary generation in parallel. Either enrichment
// failing only degrades its own field; the rows are already final.
func (s *Service) enrich(ctx context.Context, sessionID, question string, result query.Result) (*chartgen.Spec, string, string) {
	var (
		spec      *chartgen.Spec
		chartCode string
		summary   string
	)

	var wg sync.WaitGroup
	if s.charts != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			generated, raw, err := s.charts.Generate(ctx, chartgen.Request{
				Question: question,
				Columns:  result.Columns,
				Rows:     result.Rows,
			})
			observability.ObserveStage("chart", time.Since(start))
			if err != nil {
				observability.IncrementSynthesisFailure("chart")
				s.logger.WarnContext(ctx, "chart generation degraded",
					slog.String("session_id", sessionID),
					slog.String("error", err.Error()))
				return
			}
			spec = generated
			chartCode = raw
		}()
	}
	if s.summaries != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			text, err := s.summaries.Summarize(ctx, insight.Request{
				Question: question,
				Columns:  result.Columns,
				Rows:     result.Rows,
			})
			observability.ObserveStage("summary", time.Since(start))
			if err != nil {
				observability.IncrementSynthesisFailure("summary")
				s.logger.WarnContext(ctx, "summary generation degraded",
					slog.String("session_id", sessionID),
					slog.String("error", err.Error()))
				return
			}
			summary = text
		}()
	}
	wg.Wait()

	return spec, chartCode, summary
}

// revisualize answers a chart-type follow-up from the committed artifact:
// same rows, same summary, new chart spec, no model or engine call.
func (s *Service) revisualize(sess *session.Session, prior *session.Artifact, target chartgen.Type, turnIndex int) Response {
	spec := chartgen.Retype(prior.Chart, target, prior.Columns, prior.Rows)

	sess.SetArtifact(&session.Artifact{
		QueryText: prior.QueryText,
		Columns:   prior.Columns,
		Rows:      prior.Rows,
		Chart:     spec,
		Summary:   prior.Summary,
		TurnIndex: turnIndex,
		CreatedAt: s.now(),
	})

	return Response{
		IntroText: introResults,
		Summary:   prior.Summary,
		Table:     &Table{Columns: prior.Columns, Rows: prior.Rows},
		Chart:     spec,
		QueryText: prior.QueryText,
	}
}

func (s *Service) finish(sess *session.Session, outcome string, started time.Time, response Response, turnContent string) Response {
	sess.AppendTurn(session.Turn{Role: session.RoleAssistant, Content: turnContent, CreatedAt: s.now()})
	response.SessionID = sess.ID
	observability.ObserveTurn(outcome, time.Since(started))
	return response
}

func toMessages(turns []session.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	return messages
}

func pinnedTurn(artifact *session.Artifact) int {
	if artifact == nil {
		return -1
	}
	return artifact.TurnIndex
}
