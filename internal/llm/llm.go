package llm

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	System      string
	Messages    []Message
	Temperature float64
}

// Client is the single capability boundary to the language-model service.
// Query, chart, and summary synthesis are all thin adapters over this call.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm request failed status=%d body=%s", e.StatusCode, e.Body)
}
