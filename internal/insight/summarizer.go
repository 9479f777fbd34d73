package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datachat/datachat/internal/llm"
	"github.com/datachat/datachat/internal/observability"
)

const summaryRowLimit = 10

const summarySystemPrompt = "You are a helpful data analyst assistant. " +
	"You provide concise, natural language summaries of query results."

type Request struct {
	Question string
	Columns  []string
	Rows     [][]any
}

type Summarizer interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

type LLMSummarizer struct {
	client llm.Client
}

func NewLLMSummarizer(client llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, req Request) (string, error) {
	prompt := buildSummaryPrompt(req)

	start := time.Now()
	raw, err := s.client.Complete(ctx, llm.Request{
		System:      summarySystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	})
	observability.ObserveLLMRequest("summary", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}

	return strings.TrimSpace(raw), nil
}

func buildSummaryPrompt(req Request) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("The user asked: %q\n\n", req.Question))
	builder.WriteString("The query returned the following data:\n")
	builder.WriteString(renderRows(req.Columns, req.Rows, summaryRowLimit))
	if len(req.Rows) > summaryRowLimit {
		builder.WriteString(fmt.Sprintf("(showing the first %d of %d rows)\n", summaryRowLimit, len(req.Rows)))
	}
	builder.WriteString("\n**Instructions:**\n")
	builder.WriteString("1. Provide a short, insightful summary in one or two sentences, at most 50 words.\n")
	builder.WriteString("2. Do not just repeat the data. Mention obvious trends, peaks or outliers when present.\n")
	builder.WriteString("3. Answer in plain language. No markdown, no code, no column name jargon.\n")
	return builder.String()
}

func renderRows(columns []string, rows [][]any, limit int) string {
	var builder strings.Builder
	builder.WriteString(strings.Join(columns, " | "))
	builder.WriteString("\n")

	for i, row := range rows {
		if i >= limit {
			break
		}
		cells := make([]string, len(row))
		for j, value := range row {
			if value == nil {
				cells[j] = "NULL"
				continue
			}
			cells[j] = fmt.Sprintf("%v", value)
		}
		builder.WriteString(strings.Join(cells, " | "))
		builder.WriteString("\n")
	}
	return builder.String()
}
