package chartgen

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoChart = errors.New("no suitable chart")

type Type string

const (
	TypeBar       Type = "bar"
	TypeLine      Type = "line"
	TypePie       Type = "pie"
	TypeScatter   Type = "scatter"
	TypeHistogram Type = "histogram"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBar, TypeLine, TypePie, TypeScatter, TypeHistogram:
		return true
	default:
		return false
	}
}

func ParseType(raw string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// Spec is the declarative chart description attached to a turn. Column
// references always use the sanitized result column names.
type Spec struct {
	Type  Type   `json:"type"`
	X     string `json:"x"`
	Y     string `json:"y,omitempty"`
	Title string `json:"title,omitempty"`
}

func (s *Spec) Validate(columns []string) error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown chart type %q", s.Type)
	}
	if strings.TrimSpace(s.X) == "" {
		return fmt.Errorf("chart x column is required")
	}
	if !containsColumn(columns, s.X) {
		return fmt.Errorf("chart x column %q is not in the result", s.X)
	}
	if s.Type == TypeHistogram {
		if s.Y != "" && !containsColumn(columns, s.Y) {
			return fmt.Errorf("chart y column %q is not in the result", s.Y)
		}
		return nil
	}
	if strings.TrimSpace(s.Y) == "" {
		return fmt.Errorf("chart y column is required for %s charts", s.Type)
	}
	if !containsColumn(columns, s.Y) {
		return fmt.Errorf("chart y column %q is not in the result", s.Y)
	}
	return nil
}

// Suitable reports whether a result set is worth charting: at least two
// columns and at least one numeric column among the returned values.
func Suitable(columns []string, rows [][]any) bool {
	if len(columns) < 2 || len(rows) == 0 {
		return false
	}
	numeric, _ := columnKinds(columns, rows)
	return len(numeric) > 0
}

// Retype rebinds a prior chart to a new type without any model call. Column
// bindings are kept when they still resolve, otherwise re-derived from the
// result shape.
func Retype(prior *Spec, target Type, columns []string, rows [][]any) *Spec {
	spec := &Spec{Type: target}
	if prior != nil {
		spec.X = prior.X
		spec.Y = prior.Y
		spec.Title = prior.Title
	}

	numeric, categorical := columnKinds(columns, rows)
	if !containsColumn(columns, spec.X) {
		spec.X = firstColumn(categorical, columns)
	}
	if spec.Y != "" && !containsColumn(columns, spec.Y) {
		spec.Y = ""
	}
	if spec.Y == "" && target != TypeHistogram {
		if len(numeric) > 0 {
			spec.Y = numeric[0]
		}
	}
	return spec
}

// columnKinds splits result columns into numeric and categorical by
// inspecting the first non-nil value of each column.
func columnKinds(columns []string, rows [][]any) ([]string, []string) {
	numeric := make([]string, 0, len(columns))
	categorical := make([]string, 0, len(columns))

	for idx, column := range columns {
		kindKnown := false
		for _, row := range rows {
			if idx >= len(row) || row[idx] == nil {
				continue
			}
			if isNumericValue(row[idx]) {
				numeric = append(numeric, column)
			} else {
				categorical = append(categorical, column)
			}
			kindKnown = true
			break
		}
		if !kindKnown {
			categorical = append(categorical, column)
		}
	}
	return numeric, categorical
}

func isNumericValue(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func containsColumn(columns []string, name string) bool {
	for _, column := range columns {
		if column == name {
			return true
		}
	}
	return false
}

func firstColumn(preferred []string, fallback []string) string {
	if len(preferred) > 0 {
		return preferred[0]
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}
