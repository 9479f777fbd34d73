package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/datachat/datachat/internal/query"
)

func handleDatasetPreview(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil || deps.DatasetTable == "" {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATASET_NOT_CONFIGURED", "dataset is not loaded", false, nil)
		return
	}

	maxRows := deps.PreviewRowLimit
	if maxRows <= 0 {
		maxRows = 50
	}
	limit := maxRows
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, nil)
			return
		}
		limit = parsed
		if limit > maxRows {
			limit = maxRows
		}
	}

	result, err := deps.QueryEngine.Execute(r.Context(), query.Request{
		SQL:      "SELECT * FROM " + quoteIdent(deps.DatasetTable),
		RowLimit: limit,
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "PREVIEW_FAILED", "failed to read dataset preview", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"columns":   result.Columns,
		"rows":      result.Rows,
		"row_count": len(result.Rows),
	})
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
