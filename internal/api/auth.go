package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/auth"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/config"
)

// ctxKeyClaims is the context key for validated token claims.
const ctxKeyClaims contextKey = "claims"

// tokenQueryParam carries the access token on WebSocket upgrades, where
// browsers cannot set an Authorization header.
const tokenQueryParam = "access_token"

// tokenRequest is the request body for POST /auth/token.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// tokenResponse is the response body for POST /auth/token.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        auth.Role `json:"role"`
}

// handleToken exchanges client credentials for an access token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.clients == nil {
		writeNotFound(w, "authentication is not enabled")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		writeBadRequest(w, "client_id and client_secret are required")
		return
	}

	client, err := s.clients.Authenticate(req.ClientID, req.ClientSecret)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("client authentication failed", "client_id", req.ClientID, "error", err)
		}
		s.logger.Warn("rejected token request", "client_id", req.ClientID)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	token, expires, err := auth.GenerateAccessToken(client, s.secCfg.JWT.Secret, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign access token", "client_id", client.ID, "error", err)
		writeInternalError(w, "failed to generate token")
		return
	}

	s.logger.Info("issued access token", "client_id", client.ID, "role", string(client.Role))
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
		ExpiresAt:   expires.UTC(),
		Role:        client.Role,
	})
}

// authMiddleware validates the bearer token and stores its claims in the
// request context. A no-op when authentication is disabled.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.clients == nil {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="graylogic-shades"`)
			writeUnauthorized(w, "missing bearer token")
			return
		}
		claims, err := auth.ParseToken(raw, s.secCfg.JWT.Secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="graylogic-shades", error="invalid_token"`)
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission rejects requests whose token role lacks perm.
// A no-op when authentication is disabled.
func (s *Server) requirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.clients == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims := claimsFromContext(r.Context())
			if claims == nil || !auth.HasPermission(claims.Role, perm) {
				writeForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// claimsFromContext returns the token claims of an authenticated request.
func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.Claims) //nolint:errcheck // nil when unauthenticated
	return claims
}

// bearerToken extracts the token from the Authorization header, or from the
// access_token query parameter on WebSocket upgrades.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get(tokenQueryParam)
	}
	return ""
}

// authClients converts configured clients for the client store.
func authClients(cfgClients []config.APIClientConfig) []auth.Client {
	out := make([]auth.Client, 0, len(cfgClients))
	for _, c := range cfgClients {
		out = append(out, auth.Client{ID: c.ID, Role: auth.Role(c.Role), SecretHash: c.SecretHash})
	}
	return out
}
