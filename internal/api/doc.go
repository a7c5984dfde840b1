// Package api implements the HTTP REST API and WebSocket server for Gray Logic Shades.
//
// This package provides:
//   - Read access to the capability registry (types and capabilities codes)
//   - Shade listing with resolved profiles and the current normalized state
//   - Percentage commands translated and sent through the hub bridge
//   - Position history, registry diagnostics and command audit queries
//   - A WebSocket hub relaying retained shade state to subscribed clients
//   - Optional bearer token authentication with role-based permissions
//
// # Architecture
//
//	HTTP client ──► router ──► ShadeService (hub.Bridge) ──► native hub
//	                  │
//	                  ├──► history / diagnostics / audit repositories (SQLite)
//	                  │
//	WebSocket ◄── Hub ◄── MQTT graylogic/state/shade/+
//
// # Authentication
//
// With security enabled, clients POST their ID and secret to
// /api/v1/auth/token and send the returned token as "Authorization: Bearer".
// WebSocket upgrades may pass it as the access_token query parameter.
// Health and token issuance are always public.
//
// # Graceful Degradation
//
// The server operates without MQTT. Reads and commands work; only the
// WebSocket state relay is inactive.
package api
