package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/datachat/datachat/internal/chartgen"
	"github.com/datachat/datachat/internal/chat"
	"github.com/datachat/datachat/internal/session"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type chatTurnError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type chatResponse struct {
	SessionID          string         `json:"session_id"`
	IntroText          string         `json:"intro_text,omitempty"`
	Summary            string         `json:"summary,omitempty"`
	Table              *chatTable     `json:"table,omitempty"`
	Chart              *chartgen.Spec `json:"chart,omitempty"`
	GeneratedQueryText string         `json:"generated_query_text,omitempty"`
	GeneratedChartCode string         `json:"generated_chart_code,omitempty"`
	Cached             bool           `json:"cached,omitempty"`
	Error              *chatTurnError `json:"error,omitempty"`
}

// handleChat runs one conversational turn. Turn-level failures (synthesis,
// execution) are valid outcomes and come back as HTTP 200 with an error
// field; only transport problems use the error envelope.
func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil || deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat dependencies are not configured", false, nil)
		return
	}

	var request chatRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chat request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "MESSAGE_REQUIRED", "message is required", false, nil)
		return
	}

	var sess *session.Session
	if strings.TrimSpace(request.SessionID) == "" {
		sess = deps.Sessions.Create()
	} else {
		var err error
		sess, err = deps.Sessions.Get(strings.TrimSpace(request.SessionID))
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session was not found", false, map[string]any{"session_id": request.SessionID})
				return
			}
			writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", "failed to look up session", true, map[string]any{"details": err.Error()})
			return
		}
	}

	result := deps.Chat.Respond(r.Context(), sess, request.Message)
	writeJSON(w, http.StatusOK, toChatResponse(result))
}

func toChatResponse(result chat.Response) chatResponse {
	response := chatResponse{
		SessionID:          result.SessionID,
		IntroText:          result.IntroText,
		Summary:            result.Summary,
		Chart:              result.Chart,
		GeneratedQueryText: result.QueryText,
		GeneratedChartCode: result.ChartCode,
		Cached:             result.Cached,
	}
	if result.Table != nil {
		response.Table = &chatTable{Columns: result.Table.Columns, Rows: result.Table.Rows}
	}
	if result.Error != nil {
		response.Error = &chatTurnError{Kind: string(result.Error.Kind), Message: result.Error.Message}
	}
	return response
}
