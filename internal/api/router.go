package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-shades/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Get("/health", s.handleHealth)
		r.Post("/auth/token", s.handleToken)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermShadeRead))

				r.Route("/registry", func(r chi.Router) {
					r.Get("/types/{code}", s.handleGetType)
					r.Get("/capabilities/{code}", s.handleGetCapabilities)
				})

				r.Get("/shades", s.handleListShades)
				r.Route("/shades/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetShade)
					r.Get("/state", s.handleGetShadeState)
					r.Get("/history", s.handleShadeHistory)
					r.With(s.requirePermission(auth.PermShadeOperate)).Post("/command", s.handleShadeCommand)
				})

				r.Get("/ws", s.handleWebSocket)
			})

			r.With(s.requirePermission(auth.PermDiagnosticsRead)).Get("/diagnostics", s.handleListDiagnostics)
			r.With(s.requirePermission(auth.PermAuditRead)).Get("/commands", s.handleListCommands)
		})
	})

	return r
}

// handleHealth returns the server health status and bridge counters.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           s.version,
		"shades":            len(s.shades.ShadeIDs()),
		"websocket_clients": s.hub.ClientCount(),
		"bridge":            s.shades.Stats(),
	})
}
