package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// commandSource marks commands that arrived over the REST API. Authenticated
// requests append the client ID.
const commandSource = "api"

// ShadeView is the JSON form of a configured shade.
type ShadeView struct {
	ID            string           `json:"id"`
	Type          TypeView         `json:"type"`
	Capabilities  CapabilitiesView `json:"capabilities"`
	Inverted      bool             `json:"inverted"`
	NativeMax     int              `json:"native_max"`
	VaneNativeMax int              `json:"vane_native_max,omitempty"`
	Channels      []shade.Channel  `json:"channels"`
	State         map[string]any   `json:"state,omitempty"`
}

func (s *Server) shadeView(id string, act shade.Actuator) ShadeView {
	v := ShadeView{
		ID:           id,
		Type:         typeView(act.Type),
		Capabilities: capabilitiesView(act.Capabilities),
		Inverted:     act.Inverted,
		NativeMax:    act.PrimaryMax(),
		Channels:     act.Channels(),
	}
	if act.Capabilities.SupportsTilt() {
		v.VaneNativeMax = act.VaneMax()
	}
	if st, ok := s.shades.CurrentState(id); ok {
		v.State = st.State
	}
	return v
}

// handleListShades returns every configured shade with its state.
func (s *Server) handleListShades(w http.ResponseWriter, _ *http.Request) {
	ids := s.shades.ShadeIDs()
	views := make([]ShadeView, 0, len(ids))
	for _, id := range ids {
		if act, ok := s.shades.Actuator(id); ok {
			views = append(views, s.shadeView(id, act))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shades": views,
		"count":  len(views),
	})
}

// handleGetShade returns one shade with its resolved profile and state.
func (s *Server) handleGetShade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	act, ok := s.shades.Actuator(id)
	if !ok {
		writeNotFound(w, "shade not found")
		return
	}
	writeJSON(w, http.StatusOK, s.shadeView(id, act))
}

// handleGetShadeState returns the normalized state as published on MQTT.
func (s *Server) handleGetShadeState(w http.ResponseWriter, r *http.Request) {
	st, ok := s.shades.CurrentState(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "shade not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleShadeCommand translates and sends a command, responding with the ack.
func (s *Server) handleShadeCommand(w http.ResponseWriter, r *http.Request) {
	var msg hub.CommandMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if msg.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}
	if msg.Source == "" {
		msg.Source = commandSource
		if claims := claimsFromContext(r.Context()); claims != nil {
			msg.Source = commandSource + ":" + claims.Subject
		}
	}

	ack := s.shades.HandleCommand(r.Context(), chi.URLParam(r, "id"), msg)
	writeJSON(w, ackStatusCode(ack), ack)
}

// ackStatusCode maps an acknowledgement to an HTTP status.
func ackStatusCode(ack hub.AckMessage) int {
	if ack.Status != hub.AckFailed || ack.Error == nil {
		return http.StatusOK
	}
	switch ack.Error.Code {
	case hub.ErrCodeNotConfigured:
		return http.StatusNotFound
	case hub.ErrCodeOutOfRange, hub.ErrCodeInvalidCommand:
		return http.StatusBadRequest
	case hub.ErrCodeUnsupportedChannel, hub.ErrCodeUnsupportedForState:
		return http.StatusUnprocessableEntity
	case hub.ErrCodeDeviceUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleShadeHistory returns recent position history, newest first.
func (s *Server) handleShadeHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "position history is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, ok := s.shades.Actuator(id); !ok {
		writeNotFound(w, "shade not found")
		return
	}
	limit, ok := intQuery(w, r, "limit")
	if !ok {
		return
	}

	entries, err := s.history.GetHistory(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("failed to load shade history", "shade_id", id, "error", err)
		writeInternalError(w, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shade_id": id,
		"entries":  entries,
		"count":    len(entries),
	})
}

// intQuery parses an optional non-negative integer query parameter.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
