package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/datachat/datachat/internal/nl2sql"
	"github.com/datachat/datachat/internal/query"
)

type queryRequest struct {
	SQL      string `json:"sql"`
	RowLimit int    `json:"row_limit"`
}

type queryResponse struct {
	Columns []string       `json:"columns"`
	Rows    [][]any        `json:"rows"`
	Stats   map[string]any `json:"stats"`
}

// handleQuery executes caller-written SQL through the same read-only gate and
// executor that synthesized queries go through.
func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}

	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	if err := nl2sql.EnsureReadOnly(request.SQL); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_NOT_ALLOWED", err.Error(), false, nil)
		return
	}
	if request.RowLimit < 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ROW_LIMIT", "row_limit must be >= 0", false, nil)
		return
	}

	limit := deps.QueryRowLimit
	if limit <= 0 {
		limit = 1000
	}
	if request.RowLimit > 0 && request.RowLimit < limit {
		limit = request.RowLimit
	}

	result, err := deps.QueryEngine.Execute(r.Context(), query.Request{
		SQL:      request.SQL,
		RowLimit: limit,
	})
	if err != nil {
		if query.IsTimeout(err) {
			writeError(r.Context(), w, http.StatusGatewayTimeout, "QUERY_TIMEOUT", err.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Columns: result.Columns,
		Rows:    result.Rows,
		Stats: map[string]any{
			"duration_ms": result.Duration.Milliseconds(),
			"row_count":   len(result.Rows),
		},
	})
}
