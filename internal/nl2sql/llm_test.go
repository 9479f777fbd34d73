package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/datachat/datachat/internal/llm"
)

type fakeClient struct {
	responses []string
	err       error
	requests  []llm.Request
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return response, nil
}

const fixtureSchema = "Table 'transactions' has the following columns and data types:\n" +
	"- Column: 'fiscal_year' (Type: numeric)\n" +
	"- Column: 'country' (Type: text)\n"

func newTestSynthesizer(client llm.Client, cacheTTL time.Duration) *LLMSynthesizer {
	return NewLLMSynthesizer(client, Config{
		Model:              "gpt-5",
		MaxHistoryTurns:    12,
		HistoryTokenBudget: 3000,
		CacheTTL:           cacheTTL,
	})
}

func TestSynthesizeBuildsPromptAndStripsFences(t *testing.T) {
	client := &fakeClient{responses: []string{"```sql\nSELECT country FROM transactions;\n```"}}
	synthesizer := newTestSynthesizer(client, 0)

	result, err := synthesizer.Synthesize(context.Background(), Request{
		Schema:     fixtureSchema,
		Table:      "transactions",
		History:    []llm.Message{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}},
		PinnedTurn: -1,
		Question:   "Which countries are in the data?",
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.SQL != "SELECT country FROM transactions;" {
		t.Fatalf("sql = %q", result.SQL)
	}
	if result.Cached {
		t.Fatal("first synthesis must not be cached")
	}
	if result.Model != "gpt-5" {
		t.Fatalf("model = %q", result.Model)
	}

	if len(client.requests) != 1 {
		t.Fatalf("expected one completion, got %d", len(client.requests))
	}
	req := client.requests[0]
	if req.Temperature != 0.0 {
		t.Fatalf("temperature = %v", req.Temperature)
	}
	if !strings.Contains(req.System, "Table 'transactions'") {
		t.Fatal("system prompt must carry the schema")
	}
	if !strings.Contains(req.System, "The only table you may query is named 'transactions'") {
		t.Fatal("system prompt must pin the table name")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || last.Content != "Which countries are in the data?" {
		t.Fatalf("latest question must be the final message, got %+v", last)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected history plus question, got %d messages", len(req.Messages))
	}
}

func TestSynthesizeRejectsMutatingSQL(t *testing.T) {
	client := &fakeClient{responses: []string{"DROP TABLE transactions"}}
	synthesizer := newTestSynthesizer(client, 0)

	_, err := synthesizer.Synthesize(context.Background(), Request{
		Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "drop everything",
	})
	if !errors.Is(err, ErrNotReadOnly) {
		t.Fatalf("expected ErrNotReadOnly, got %v", err)
	}
}

func TestSynthesizeRejectsEmptyCompletion(t *testing.T) {
	client := &fakeClient{responses: []string{"```sql\n```"}}
	synthesizer := newTestSynthesizer(client, 0)

	_, err := synthesizer.Synthesize(context.Background(), Request{
		Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "anything",
	})
	if err == nil || !strings.Contains(err.Error(), "empty SQL") {
		t.Fatalf("expected empty SQL error, got %v", err)
	}
}

func TestSynthesizePropagatesClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("upstream unavailable")}
	synthesizer := newTestSynthesizer(client, 0)

	_, err := synthesizer.Synthesize(context.Background(), Request{
		Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "anything",
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSynthesizeCacheHit(t *testing.T) {
	client := &fakeClient{responses: []string{"SELECT COUNT(*) FROM transactions"}}
	synthesizer := newTestSynthesizer(client, time.Minute)

	request := Request{Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "How many rows?"}

	first, err := synthesizer.Synthesize(context.Background(), request)
	if err != nil {
		t.Fatalf("first Synthesize() error = %v", err)
	}
	second, err := synthesizer.Synthesize(context.Background(), request)
	if err != nil {
		t.Fatalf("second Synthesize() error = %v", err)
	}

	if first.Cached || !second.Cached {
		t.Fatalf("cached flags = %v %v", first.Cached, second.Cached)
	}
	if second.SQL != first.SQL {
		t.Fatalf("cached SQL differs: %q vs %q", first.SQL, second.SQL)
	}
	if len(client.requests) != 1 {
		t.Fatalf("cache hit must not call the model, calls = %d", len(client.requests))
	}
}

func TestSynthesizeCacheKeyedByContext(t *testing.T) {
	client := &fakeClient{responses: []string{
		"SELECT COUNT(*) FROM transactions",
		"SELECT country FROM transactions",
	}}
	synthesizer := newTestSynthesizer(client, time.Minute)

	base := Request{Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "How many rows?"}
	if _, err := synthesizer.Synthesize(context.Background(), base); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	withHistory := base
	withHistory.History = []llm.Message{{Role: "user", Content: "earlier question"}}
	if _, err := synthesizer.Synthesize(context.Background(), withHistory); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(client.requests) != 2 {
		t.Fatalf("different context must miss the cache, calls = %d", len(client.requests))
	}
}

func TestSynthesizeRequiresQuestion(t *testing.T) {
	client := &fakeClient{responses: []string{"SELECT 1"}}
	synthesizer := newTestSynthesizer(client, 0)

	if _, err := synthesizer.Synthesize(context.Background(), Request{
		Schema: fixtureSchema, Table: "transactions", PinnedTurn: -1, Question: "   ",
	}); err == nil {
		t.Fatal("expected error for blank question")
	}
}

func TestSynthesizeWindowsLongHistory(t *testing.T) {
	client := &fakeClient{responses: []string{"SELECT 1"}}
	synthesizer := NewLLMSynthesizer(client, Config{
		Model:              "gpt-5",
		MaxHistoryTurns:    2,
		HistoryTokenBudget: 0,
	})

	history := []llm.Message{
		{Role: "user", Content: "oldest"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "recent"},
		{Role: "assistant", Content: "latest reply"},
	}
	if _, err := synthesizer.Synthesize(context.Background(), Request{
		Schema: fixtureSchema, Table: "transactions", History: history, PinnedTurn: -1, Question: "q",
	}); err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	messages := client.requests[0].Messages
	if len(messages) != 3 {
		t.Fatalf("expected two windowed turns plus question, got %d", len(messages))
	}
	if messages[0].Content != "recent" {
		t.Fatalf("window must keep newest turns, got %+v", messages)
	}
}
