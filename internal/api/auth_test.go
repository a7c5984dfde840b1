package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-shades/internal/auth"
	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

const testJWTSecret = "api-test-signing-secret-32-bytes!!"

// setupSecuredServer returns a router with authentication enabled and one
// client per role. Each client's secret is "<id>-secret".
func setupSecuredServer(t *testing.T) http.Handler {
	t.Helper()
	ts := setupServer(t)

	var clients []config.APIClientConfig
	for _, role := range []string{"viewer", "operator", "admin"} {
		hash, err := auth.HashSecret(role + "-secret")
		if err != nil {
			t.Fatalf("HashSecret() error = %v", err)
		}
		clients = append(clients, config.APIClientConfig{ID: role, SecretHash: hash, Role: role})
	}

	srv, err := New(Deps{
		Logger:      testLogger(),
		Shades:      ts.bridge,
		Diagnostics: ts.server.diagnostics,
		Audit:       ts.server.audit,
		History:     ts.server.history,
		Security: config.SecurityConfig{
			Enabled: true,
			JWT:     config.JWTConfig{Secret: testJWTSecret, AccessTokenTTL: 5},
			Clients: clients,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv.buildRouter()
}

func issueToken(t *testing.T, handler http.Handler, id, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(tokenRequest{ClientID: id, ClientSecret: secret}) //nolint:errcheck // static input
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body)))
	return rec
}

func tokenFor(t *testing.T, handler http.Handler, role string) string {
	t.Helper()
	rec := issueToken(t, handler, role, role+"-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("token for %s: status = %d body = %s", role, rec.Code, rec.Body.String())
	}
	return decodeBody[tokenResponse](t, rec).AccessToken
}

func TestNew_SecurityValidation(t *testing.T) {
	ts := setupServer(t)

	if _, err := New(Deps{Logger: testLogger(), Shades: ts.bridge, Security: config.SecurityConfig{Enabled: true}}); err == nil {
		t.Error("New() with security and no secret should fail")
	}
	_, err := New(Deps{Logger: testLogger(), Shades: ts.bridge, Security: config.SecurityConfig{
		Enabled: true,
		JWT:     config.JWTConfig{Secret: testJWTSecret},
		Clients: []config.APIClientConfig{{ID: "x", SecretHash: "plain", Role: "viewer"}},
	}})
	if err == nil {
		t.Error("New() with malformed secret hash should fail")
	}
}

func TestHandleToken(t *testing.T) {
	handler := setupSecuredServer(t)

	rec := issueToken(t, handler, "operator", "operator-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[tokenResponse](t, rec)
	if resp.TokenType != "Bearer" || resp.Role != auth.RoleOperator {
		t.Errorf("response = %+v", resp)
	}
	if resp.ExpiresIn <= 0 || resp.ExpiresIn > 5*60 {
		t.Errorf("expires_in = %d, want within 300s", resp.ExpiresIn)
	}
	claims, err := auth.ParseToken(resp.AccessToken, testJWTSecret)
	if err != nil || claims.Subject != "operator" {
		t.Errorf("ParseToken() = %+v, %v", claims, err)
	}

	tests := []struct {
		name       string
		id, secret string
		wantStatus int
	}{
		{"wrong secret", "operator", "nope", http.StatusUnauthorized},
		{"unknown client", "intruder", "operator-secret", http.StatusUnauthorized},
		{"missing secret", "operator", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := issueToken(t, handler, tt.id, tt.secret); rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleToken_Disabled(t *testing.T) {
	ts := setupServer(t)
	if rec := issueToken(t, ts.handler, "viewer", "viewer-secret"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when authentication is disabled", rec.Code)
	}
}

func TestAuthorization(t *testing.T) {
	handler := setupSecuredServer(t)
	tokens := map[string]string{
		"viewer":   tokenFor(t, handler, "viewer"),
		"operator": tokenFor(t, handler, "operator"),
		"admin":    tokenFor(t, handler, "admin"),
	}
	command := `{"command":"up"}`

	tests := []struct {
		name       string
		role       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health is public", "", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"no token", "", http.MethodGet, "/api/v1/shades", "", http.StatusUnauthorized},
		{"viewer lists shades", "viewer", http.MethodGet, "/api/v1/shades", "", http.StatusOK},
		{"viewer reads registry", "viewer", http.MethodGet, "/api/v1/registry/types/51", "", http.StatusOK},
		{"viewer cannot command", "viewer", http.MethodPost, "/api/v1/shades/kitchen/command", command, http.StatusForbidden},
		{"operator commands", "operator", http.MethodPost, "/api/v1/shades/kitchen/command", command, http.StatusOK},
		{"operator cannot read diagnostics", "operator", http.MethodGet, "/api/v1/diagnostics", "", http.StatusForbidden},
		{"operator cannot read audit", "operator", http.MethodGet, "/api/v1/commands", "", http.StatusForbidden},
		{"admin reads diagnostics", "admin", http.MethodGet, "/api/v1/diagnostics", "", http.StatusOK},
		{"admin reads audit", "admin", http.MethodGet, "/api/v1/commands", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+tokens[tt.role])
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestAuthorization_RejectsBadTokens(t *testing.T) {
	handler := setupSecuredServer(t)
	forged, _, err := auth.GenerateAccessToken(auth.Client{ID: "admin", Role: auth.RoleAdmin}, "some-other-secret-of-enough-length", 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, header := range []string{"Bearer " + forged, "Bearer", "Basic dXNlcjpwYXNz", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shades", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want 401", header, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("Authorization %q: missing WWW-Authenticate", header)
		}
	}
}

func TestAuthenticatedCommandSource(t *testing.T) {
	handler := setupSecuredServer(t)
	operator := tokenFor(t, handler, "operator")
	admin := tokenFor(t, handler, "admin")

	body, _ := json.Marshal(hub.CommandMessage{Command: shade.CommandDown}) //nolint:errcheck // static input
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shades/kitchen/command", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+operator)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/commands?source=api:operator", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := decodeBody[struct {
		Total int `json:"total"`
	}](t, rec); got.Total != 1 {
		t.Errorf("commands from api:operator = %d, want 1", got.Total)
	}
}

func TestWebSocket_TokenQueryParam(t *testing.T) {
	handler := setupSecuredServer(t)
	viewer := tokenFor(t, handler, "viewer")

	httpSrv := httptest.NewServer(handler)
	t.Cleanup(httpSrv.Close)
	base := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/v1/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(base, nil); err == nil {
		t.Error("dial without token should fail")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("dial without token: resp = %v, want 401", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?access_token="+viewer, nil)
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck // test cleanup

	// Viewers may watch but not command.
	if err := conn.WriteJSON(WSMessage{
		Type:    WSTypeCommand,
		ID:      "c1",
		Payload: WSCommandPayload{ShadeID: "kitchen", CommandMessage: hub.CommandMessage{Command: shade.CommandUp}},
	}); err != nil {
		t.Fatalf("write command: %v", err)
	}
	if resp := readWS(t, conn); resp.Type != WSTypeError || resp.ID != "c1" {
		t.Errorf("viewer command response = %+v, want error", resp)
	}

	operator := tokenFor(t, handler, "operator")
	opConn, _, err := websocket.DefaultDialer.Dial(base+"?access_token="+operator, nil)
	if err != nil {
		t.Fatalf("dial as operator: %v", err)
	}
	t.Cleanup(func() { opConn.Close() }) //nolint:errcheck // test cleanup
	if err := opConn.WriteJSON(WSMessage{
		Type:    WSTypeCommand,
		ID:      "c2",
		Payload: WSCommandPayload{ShadeID: "kitchen", CommandMessage: hub.CommandMessage{Command: shade.CommandUp}},
	}); err != nil {
		t.Fatalf("write command: %v", err)
	}
	if resp := readWS(t, opConn); resp.Type != WSTypeAck || resp.ID != "c2" {
		t.Errorf("operator command response = %+v, want ack", resp)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		upgrade bool
		query   string
		want    string
	}{
		{"bearer header", "Bearer abc", false, "", "abc"},
		{"case insensitive scheme", "bearer abc", false, "", "abc"},
		{"other scheme", "Basic abc", false, "", ""},
		{"query ignored without upgrade", "", false, "abc", ""},
		{"query on websocket upgrade", "", true, "abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/ws"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.upgrade {
				req.Header.Set("Upgrade", "websocket")
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
