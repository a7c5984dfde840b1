package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-shades/internal/diagnostics"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// handleListDiagnostics returns recorded registry gaps and mismatches.
//
// Query parameters: kind, shade_id, type, limit, offset.
func (s *Server) handleListDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.diagnostics == nil {
		writeUnavailable(w, "diagnostics store is not configured")
		return
	}

	q := r.URL.Query()
	filter := diagnostics.Filter{
		Kind:    shade.DiagnosticKind(q.Get("kind")),
		ShadeID: q.Get("shade_id"),
	}
	var ok bool
	if filter.Type, ok = intQuery(w, r, "type"); !ok {
		return
	}
	if filter.Limit, ok = intQuery(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = intQuery(w, r, "offset"); !ok {
		return
	}

	result, err := s.diagnostics.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list diagnostics", "error", err)
		writeInternalError(w, "failed to list diagnostics")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
