package chartgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/datachat/datachat/internal/llm"
	"github.com/datachat/datachat/internal/observability"
)

const sampleRowLimit = 5

const chartSystemPrompt = "You are a data visualization expert. " +
	"You respond with a single JSON object describing a chart and nothing else."

type Request struct {
	Question string
	Columns  []string
	Rows     [][]any
}

// Generator proposes a chart for a result set. A nil spec with a nil error
// means the result is not worth charting.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Spec, string, error)
}

type LLMGenerator struct {
	client llm.Client
}

func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Spec, string, error) {
	if !Suitable(req.Columns, req.Rows) {
		return nil, "", nil
	}

	prompt := buildChartPrompt(req)
	start := time.Now()
	raw, err := g.client.Complete(ctx, llm.Request{
		System:      chartSystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	observability.ObserveLLMRequest("chart", err, time.Since(start))
	if err != nil {
		return nil, "", fmt.Errorf("chart completion: %w", err)
	}

	cleaned := stripJSONFences(raw)
	var spec Spec
	if err := json.Unmarshal([]byte(cleaned), &spec); err != nil {
		return nil, raw, fmt.Errorf("%w: decode chart spec: %v", ErrNoChart, err)
	}
	if err := spec.Validate(req.Columns); err != nil {
		return nil, raw, fmt.Errorf("%w: %v", ErrNoChart, err)
	}

	return &spec, raw, nil
}

func buildChartPrompt(req Request) string {
	numeric, categorical := columnKinds(req.Columns, req.Rows)

	var builder strings.Builder
	builder.WriteString("Choose the best chart for the user's question and result data.\n\n")
	builder.WriteString("**User's Original Question:**\n")
	builder.WriteString(fmt.Sprintf("%q\n\n", req.Question))
	builder.WriteString("**Result Columns:**\n")
	builder.WriteString(fmt.Sprintf("- All: %s\n", strings.Join(req.Columns, ", ")))
	builder.WriteString(fmt.Sprintf("- Numeric: %s\n", strings.Join(numeric, ", ")))
	builder.WriteString(fmt.Sprintf("- Categorical: %s\n\n", strings.Join(categorical, ", ")))
	builder.WriteString("**Data Sample (first rows):**\n")
	builder.WriteString(renderSample(req.Columns, req.Rows, sampleRowLimit))
	builder.WriteString("\n**Chart type guidance:**\n")
	builder.WriteString("- \"bar\" compares a numeric value across categories.\n")
	builder.WriteString("- \"line\" shows a trend over an ordered axis.\n")
	builder.WriteString("- \"pie\" shows shares of a whole across few categories.\n")
	builder.WriteString("- \"scatter\" relates two numeric columns.\n")
	builder.WriteString("- \"histogram\" shows the distribution of one numeric column.\n\n")
	builder.WriteString("**Instructions:**\n")
	builder.WriteString("1. Respond with one JSON object and nothing else. No markdown, no commentary.\n")
	builder.WriteString("2. The object has the fields \"type\", \"x\", \"y\" and \"title\".\n")
	builder.WriteString("3. \"type\" must be one of: bar, line, pie, scatter, histogram.\n")
	builder.WriteString("4. \"x\" and \"y\" must be exact column names from the list above.\n")
	builder.WriteString("5. \"y\" may be omitted only for a histogram.\n")
	return builder.String()
}

func renderSample(columns []string, rows [][]any, limit int) string {
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

func stripJSONFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}
