package nl2sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrNotReadOnly = errors.New("statement is not read-only")

// deniedKeyword matches mutating or environment-changing DuckDB keywords on
// word boundaries anywhere in the statement. The gate fails closed: CTE
// names or string literals that collide with a keyword are rejected too.
var deniedKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|replace|merge|grant|revoke|attach|detach|copy|export|import|install|load|call|pragma|set|reset|checkpoint|vacuum|begin|commit|rollback|transaction)\b`)

// EnsureReadOnly rejects any statement that is not a single read-only
// SELECT or WITH query. It is applied to every piece of SQL before it can
// reach the engine, whether model-synthesized or user-supplied.
func EnsureReadOnly(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	if trimmed == "" {
		return fmt.Errorf("%w: empty statement", ErrNotReadOnly)
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}

	lowered := strings.ToLower(trimmed)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") {
		return fmt.Errorf("%w: statement must start with SELECT or WITH", ErrNotReadOnly)
	}

	if match := deniedKeyword.FindString(trimmed); match != "" {
		return fmt.Errorf("%w: contains %q", ErrNotReadOnly, strings.ToUpper(match))
	}
	return nil
}
