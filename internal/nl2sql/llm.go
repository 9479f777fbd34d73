package nl2sql

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/datachat/datachat/internal/llm"
	"github.com/datachat/datachat/internal/observability"
)

type Config struct {
	Model              string
	MaxHistoryTurns    int
	HistoryTokenBudget int
	CacheTTL           time.Duration
}

// LLMSynthesizer turns a question plus conversation context into one
// read-only DuckDB statement. Identical prompts within the cache TTL reuse
// the previously synthesized SQL without a model call.
type LLMSynthesizer struct {
	client      llm.Client
	model       string
	maxTurns    int
	tokenBudget int
	counter     *TokenCounter
	cache       *gocache.Cache
}

func NewLLMSynthesizer(client llm.Client, cfg Config) *LLMSynthesizer {
	synthesizer := &LLMSynthesizer{
		client:      client,
		model:       cfg.Model,
		maxTurns:    cfg.MaxHistoryTurns,
		tokenBudget: cfg.HistoryTokenBudget,
		counter:     NewTokenCounter(cfg.Model),
	}
	if cfg.CacheTTL > 0 {
		synthesizer.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return synthesizer
}

func (s *LLMSynthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Question) == "" {
		return Result{}, fmt.Errorf("question is required")
	}

	system := buildSQLSystemPrompt(req.Schema, req.Table)
	window := windowHistory(req.History, req.PinnedTurn, s.maxTurns, s.tokenBudget, s.counter)
	messages := make([]llm.Message, 0, len(window)+1)
	messages = append(messages, window...)
	messages = append(messages, llm.Message{Role: "user", Content: req.Question})

	key := cacheKey(system, messages)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return Result{SQL: cached.(string), Model: s.model, Cached: true}, nil
		}
	}

	start := time.Now()
	raw, err := s.client.Complete(ctx, llm.Request{
		System:      system,
		Messages:    messages,
		Temperature: 0.0,
	})
	observability.ObserveLLMRequest("query", err, time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("sql completion: %w", err)
	}

	sqlText := stripMarkdownSQL(raw)
	if sqlText == "" {
		return Result{}, fmt.Errorf("model returned empty SQL")
	}
	if err := EnsureReadOnly(sqlText); err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, sqlText, gocache.DefaultExpiration)
	}
	return Result{SQL: sqlText, Model: s.model, Cached: false}, nil
}

func buildSQLSystemPrompt(schema string, table string) string {
	var builder strings.Builder
	builder.WriteString("You are an expert data analyst who writes SQL queries for a DuckDB database.\n")
	builder.WriteString("Your task is to convert a natural language question into a single, valid SQL query.\n")
	builder.WriteString("You will be given the database schema and the conversation so far.\n\n")
	builder.WriteString("**Database Schema:**\n")
	builder.WriteString(schema)
	builder.WriteString("\n**Instructions:**\n")
	builder.WriteString(fmt.Sprintf("1. The only table you may query is named '%s'.\n", table))
	builder.WriteString("2. Generate a single, complete SQL query that answers the user's LATEST question, using the conversation history to resolve references like \"that year\" or \"those countries\".\n")
	builder.WriteString("3. The query MUST be read-only. Do NOT generate INSERT, UPDATE, DELETE, DROP, CREATE or any other data-modifying statement.\n")
	builder.WriteString("4. Do NOT include explanations, comments, or markdown formatting like ```sql.\n")
	builder.WriteString("5. Output ONLY the raw SQL query.\n")
	return builder.String()
}

func cacheKey(system string, messages []llm.Message) string {
	hasher := sha256.New()
	hasher.Write([]byte(system))
	for _, message := range messages {
		hasher.Write([]byte{0})
		hasher.Write([]byte(message.Role))
		hasher.Write([]byte{0})
		hasher.Write([]byte(message.Content))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
