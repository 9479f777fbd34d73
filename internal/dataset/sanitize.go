package dataset

import (
	"fmt"
	"strings"
	"unicode"
)

// DropColumn reports whether a raw source column should be excluded from the
// loaded table. Spreadsheet exports pad sheets with unnamed index columns.
func DropColumn(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return true
	}
	return strings.HasPrefix(trimmed, "Unnamed")
}

// SanitizeColumn rewrites one raw header into a stable SQL identifier:
// lower case, spaces, dots and dashes become underscores, every other
// non-alphanumeric rune is stripped, and a leading digit gets an
// underscore prefix.
func SanitizeColumn(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	var builder strings.Builder
	for _, r := range lowered {
		switch {
		case r == ' ' || r == '.' || r == '-':
			builder.WriteRune('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		}
	}

	name := builder.String()
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	name = strings.Trim(name, "_")
	if name == "" {
		return "column"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}

// SanitizeColumns maps every raw header through SanitizeColumn and resolves
// collisions with positional suffixes, so the result aligns index for index
// with the input.
func SanitizeColumns(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	seen := make(map[string]int, len(raw))

	for _, header := range raw {
		name := SanitizeColumn(header)
		seen[name]++
		if count := seen[name]; count > 1 {
			name = fmt.Sprintf("%s_%d", name, count)
			seen[name]++
		}
		sanitized = append(sanitized, name)
	}
	return sanitized
}
