package nl2sql

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/datachat/datachat/internal/llm"
)

// TokenCounter estimates prompt sizes. It uses the real model encoding when
// tiktoken knows the model and falls back to a bytes/4 heuristic otherwise,
// so an unknown model name never breaks synthesis.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter(model string) *TokenCounter {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{encoding: encoding}
}

func (c *TokenCounter) Count(text string) int {
	if c == nil || c.encoding == nil {
		return len(text)/4 + 1
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// windowHistory trims the conversation to the most recent maxTurns messages
// that fit the token budget, walking backwards from the newest. The pinned
// message is re-attached at the front when trimming would lose it, so the
// turn that introduced the current artifact stays resolvable.
func windowHistory(history []llm.Message, pinned int, maxTurns int, tokenBudget int, counter *TokenCounter) []llm.Message {
	if len(history) == 0 {
		return nil
	}

	start := len(history)
	kept := 0
	budget := tokenBudget
	for i := len(history) - 1; i >= 0; i-- {
		if maxTurns > 0 && kept >= maxTurns {
			break
		}
		if tokenBudget > 0 {
			cost := counter.Count(history[i].Content)
			if cost > budget && kept > 0 {
				break
			}
			budget -= cost
		}
		start = i
		kept++
	}

	window := history[start:]
	if pinned >= 0 && pinned < start {
		pinnedWindow := make([]llm.Message, 0, len(window)+1)
		pinnedWindow = append(pinnedWindow, history[pinned])
		pinnedWindow = append(pinnedWindow, window...)
		return pinnedWindow
	}
	return window
}
