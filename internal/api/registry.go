package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// CapabilitiesView is the JSON form of a capabilities profile.
type CapabilitiesView struct {
	Code                int    `json:"code"`
	Text                string `json:"text"`
	Known               bool   `json:"known"`
	Primary             bool   `json:"primary"`
	PrimaryInverted     bool   `json:"primary_inverted"`
	Secondary           bool   `json:"secondary"`
	SecondaryOverlapped bool   `json:"secondary_overlapped"`
	TiltAnywhere        bool   `json:"tilt_anywhere"`
	TiltOnClosed        bool   `json:"tilt_on_closed"`
	Tilt180             bool   `json:"tilt_180"`
}

// TypeView is the JSON form of a shade type.
type TypeView struct {
	Code             int              `json:"code"`
	Text             string           `json:"text"`
	Known            bool             `json:"known"`
	Capabilities     int              `json:"capabilities"`
	TypeCapabilities *int             `json:"type_capabilities,omitempty"`
	Effective        CapabilitiesView `json:"effective"`
}

func capabilitiesView(c shade.Capabilities) CapabilitiesView {
	return CapabilitiesView{
		Code:                c.Code(),
		Text:                c.Text(),
		Known:               c.IsKnown(),
		Primary:             c.SupportsPrimary(),
		PrimaryInverted:     c.IsPrimaryInverted(),
		Secondary:           c.SupportsSecondary(),
		SecondaryOverlapped: c.SupportsSecondaryOverlapped(),
		TiltAnywhere:        c.SupportsTiltAnywhere(),
		TiltOnClosed:        c.SupportsTiltOnClosed(),
		Tilt180:             c.SupportsTilt180(),
	}
}

func typeView(t shade.Type) TypeView {
	v := TypeView{
		Code:         t.Code(),
		Text:         t.Text(),
		Known:        t.IsKnown(),
		Capabilities: t.Capabilities(),
		Effective:    capabilitiesView(shade.EffectiveCapabilitiesForType(t.Code())),
	}
	if t.HasTypeCapabilities() {
		tc := t.TypeCapabilities()
		v.TypeCapabilities = &tc
	}
	return v
}

// handleGetType returns the type profile for a type code.
func (s *Server) handleGetType(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(w, r)
	if !ok {
		return
	}
	t, found := shade.LookupType(code)
	if !found {
		writeNotFound(w, "shade type not in registry")
		return
	}
	writeJSON(w, http.StatusOK, typeView(t))
}

// handleGetCapabilities returns the capabilities profile for a code.
func (s *Server) handleGetCapabilities(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(w, r)
	if !ok {
		return
	}
	c, found := shade.LookupCapabilities(code)
	if !found {
		writeNotFound(w, "capabilities not in registry")
		return
	}
	writeJSON(w, http.StatusOK, capabilitiesView(c))
}

// codeParam parses the {code} URL parameter, writing a 400 when invalid.
func codeParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil {
		writeBadRequest(w, "code must be an integer")
		return 0, false
	}
	return code, true
}
