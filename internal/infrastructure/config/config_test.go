package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
hub:
  id: "hub-living"
shades:
  - id: "kitchen"
    name: "Kitchen Venetian"
    type: 51
    capabilities: 2
    native_max: 65535
  - id: "bedroom"
    type: 44
    inverted: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Hub.ID != "hub-living" {
		t.Errorf("Hub.ID = %q, want %q", cfg.Hub.ID, "hub-living")
	}
	if cfg.Hub.CommandTimeout != 5 {
		t.Errorf("Hub.CommandTimeout = %d, want default 5", cfg.Hub.CommandTimeout)
	}
	if len(cfg.Shades) != 2 {
		t.Fatalf("len(Shades) = %d, want 2", len(cfg.Shades))
	}

	kitchen := cfg.Shades[0]
	if kitchen.Type != 51 || kitchen.ReportedCapabilities() != 2 || kitchen.NativeMax != 65535 {
		t.Errorf("kitchen = %+v", kitchen)
	}

	bedroom := cfg.Shades[1]
	if bedroom.ReportedCapabilities() != -1 {
		t.Errorf("bedroom.ReportedCapabilities() = %d, want -1", bedroom.ReportedCapabilities())
	}
	if !bedroom.Inverted {
		t.Error("bedroom.Inverted = false, want true")
	}
}

func TestLoad_CapabilitiesZeroIsReported(t *testing.T) {
	path := writeConfig(t, `
shades:
  - id: "roller"
    type: 42
    capabilities: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Shades[0].ReportedCapabilities(); got != 0 {
		t.Errorf("ReportedCapabilities() = %d, want 0", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
site:
  id: ""
database:
  path: "/tmp/test.db"
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Site:     SiteConfig{ID: "site-001"},
			Database: DatabaseConfig{Path: "/data/shades.db"},
			MQTT:     MQTTConfig{QoS: 1},
			Hub:      HubConfig{ID: "hub-1", CommandTimeout: 5},
			Shades:   []ShadeConfig{{ID: "a", Type: 1}, {ID: "b", Type: 9999}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"missing site ID", func(c *Config) { c.Site.ID = "" }, "site.id"},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, "influxdb.url"},
		{"missing hub ID", func(c *Config) { c.Hub.ID = "" }, "hub.id"},
		{"hub ID with wildcard", func(c *Config) { c.Hub.ID = "hub/#" }, "hub.id"},
		{"negative interval", func(c *Config) { c.Hub.HealthInterval = -1 }, "negative"},
		{"missing shade ID", func(c *Config) { c.Shades[0].ID = "" }, "shades[0].id"},
		{"duplicate shade ID", func(c *Config) { c.Shades[1].ID = "a" }, "duplicated"},
		{"shade ID with slash", func(c *Config) { c.Shades[1].ID = "a/b" }, "topic characters"},
		{"negative native max", func(c *Config) { c.Shades[0].NativeMax = -1 }, "native_max"},
		{"negative vane max", func(c *Config) { c.Shades[0].VaneNativeMax = -1 }, "vane_native_max"},
		{"api disabled ignores port", func(c *Config) { c.API.Port = 0 }, ""},
		{"api port out of range", func(c *Config) { c.API = APIConfig{Enabled: true, Port: 70000} }, "api.port"},
		{"api tls without cert", func(c *Config) {
			c.API = APIConfig{Enabled: true, Port: 8443, TLS: TLSConfig{Enabled: true}}
			c.WebSocket = WebSocketConfig{PingInterval: 30, PongTimeout: 10}
		}, "cert_file"},
		{"api without ping interval", func(c *Config) { c.API = APIConfig{Enabled: true, Port: 8080} }, "ping_interval"},
		{"security with short secret", func(c *Config) {
			withSecurity(c)
			c.Security.JWT.Secret = "short"
		}, "security.jwt.secret"},
		{"security without clients", func(c *Config) {
			withSecurity(c)
			c.Security.Clients = nil
		}, "security.clients"},
		{"security client without hash", func(c *Config) {
			withSecurity(c)
			c.Security.Clients[0].SecretHash = ""
		}, "security.clients[0]"},
		{"security valid", withSecurity, ""},
		{"security ignored when api disabled", func(c *Config) { c.Security.Enabled = true }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func withSecurity(c *Config) {
	c.API = APIConfig{Enabled: true, Port: 8080}
	c.WebSocket = WebSocketConfig{PingInterval: 30, PongTimeout: 10}
	c.Security = SecurityConfig{
		Enabled: true,
		JWT:     JWTConfig{Secret: strings.Repeat("k", 32), AccessTokenTTL: 15},
		Clients: []APIClientConfig{{ID: "panel", SecretHash: "$argon2id$...", Role: "operator"}},
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Hub:      HubConfig{CommandTimeout: 3, HealthInterval: 45, HistoryRetentionDays: 2},
		Security: SecurityConfig{JWT: JWTConfig{AccessTokenTTL: 20}},
	}

	if got := cfg.GetCommandTimeout(); got != 3*time.Second {
		t.Errorf("GetCommandTimeout() = %v, want 3s", got)
	}
	if got := cfg.GetHealthInterval(); got != 45*time.Second {
		t.Errorf("GetHealthInterval() = %v, want 45s", got)
	}
	if got := cfg.GetHistoryRetention(); got != 48*time.Hour {
		t.Errorf("GetHistoryRetention() = %v, want 48h", got)
	}
	if got := cfg.GetAccessTokenTTL(); got != 20*time.Minute {
		t.Errorf("GetAccessTokenTTL() = %v, want 20m", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_LOG_LEVEL", "debug")
	t.Setenv("GRAYLOGIC_HUB_ID", "hub-garage")
	t.Setenv("GRAYLOGIC_API_PORT", "9090")
	t.Setenv("GRAYLOGIC_JWT_SECRET", "env-signing-secret")

	applyEnvOverrides(cfg)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Hub.ID", cfg.Hub.ID, "hub-garage"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Security.JWT.Secret != "env-signing-secret" {
		t.Errorf("Security.JWT.Secret = %q, want env override", cfg.Security.JWT.Secret)
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_MQTT_PORT", "not-a-port")
	applyEnvOverrides(cfg)
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.InfluxDB.Enabled {
		t.Error("defaultConfig should have InfluxDB disabled")
	}
}
