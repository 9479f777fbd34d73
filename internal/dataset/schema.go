package dataset

import (
	"fmt"
	"strings"
)

type ColumnType string

const (
	TypeNumeric   ColumnType = "numeric"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema describes the single loaded table. It is computed once at startup
// and shared read-only across all sessions.
type Schema struct {
	Table    string   `json:"table"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"row_count"`
}

func (s Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, column := range s.Columns {
		names = append(names, column.Name)
	}
	return names
}

// Describe renders the schema in the fixed prompt form. The output is
// deterministic for a given schema so synthesized prompts stay cacheable.
func (s Schema) Describe() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Table '%s' has the following columns and data types:\n", s.Table))
	for _, column := range s.Columns {
		builder.WriteString(fmt.Sprintf("- Column: '%s' (Type: %s)\n", column.Name, column.Type))
	}
	return builder.String()
}

// TypeFromDuckDB folds a raw DuckDB type name into the coarse column type
// used in prompts and chart suitability checks. Unknown types fold to text.
func TypeFromDuckDB(raw string) ColumnType {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if idx := strings.IndexAny(normalized, "(<"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}

	switch normalized {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC":
		return TypeNumeric
	case "BOOLEAN", "BOOL":
		return TypeBoolean
	case "DATE":
		return TypeDate
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME",
		"TIMESTAMP WITH TIME ZONE", "TIMESTAMP_S", "TIMESTAMP_MS", "TIMESTAMP_NS":
		return TypeTimestamp
	case "VARCHAR", "CHAR", "TEXT", "STRING", "UUID":
		return TypeText
	default:
		return TypeText
	}
}
