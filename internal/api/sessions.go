package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/datachat/datachat/internal/session"
)

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	sess := deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func handleSessionHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	sess, err := deps.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session was not found", false, map[string]any{"session_id": id})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_LOOKUP_FAILED", "failed to look up session", true, map[string]any{"details": err.Error()})
		return
	}

	turns := sess.History()
	if turns == nil {
		turns = []session.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"turns":      turns,
	})
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if !deps.Sessions.Delete(id) {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session was not found", false, map[string]any{"session_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
