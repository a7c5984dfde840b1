package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-shades/internal/audit"
	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
)

// handleListCommands returns the command audit trail, newest first.
//
// Query parameters: shade_id, status, source, limit, offset.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeUnavailable(w, "command audit store is not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		ShadeID: q.Get("shade_id"),
		Status:  hub.AckStatus(q.Get("status")),
		Source:  q.Get("source"),
	}
	var ok bool
	if filter.Limit, ok = intQuery(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = intQuery(w, r, "offset"); !ok {
		return
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list commands", "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
