package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minJWTSecretLength is the shortest accepted HS256 signing secret.
const minJWTSecretLength = 32

// Config is the root configuration structure for Gray Logic Shades.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Security  SecurityConfig  `yaml:"security"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Hub       HubConfig       `yaml:"hub"`
	Shades    []ShadeConfig   `yaml:"shades"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	// Enabled requires a bearer token on every API route except health and
	// token issuance.
	Enabled bool              `yaml:"enabled"`
	JWT     JWTConfig         `yaml:"jwt"`
	Clients []APIClientConfig `yaml:"clients"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// APIClientConfig is one API client identity.
type APIClientConfig struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secret_hash"` // Argon2id PHC string
	Role       string `yaml:"role"`        // viewer, operator or admin
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used when Output is "file" or "both".
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// HubConfig contains settings for the shade hub bridge.
type HubConfig struct {
	// ID names the hub in native and health topics.
	ID string `yaml:"id"`

	// CommandTimeout bounds a single native send (seconds).
	CommandTimeout int `yaml:"command_timeout"`

	// HealthInterval is how often bridge health is published (seconds).
	HealthInterval int `yaml:"health_interval"`

	// HistoryRetentionDays prunes position history older than this. 0 keeps everything.
	HistoryRetentionDays int `yaml:"history_retention_days"`
}

// ShadeConfig declares one physical shade.
type ShadeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Type is the shade type code.
	Type int `yaml:"type"`

	// Capabilities is the capabilities code the shade reports. Omit when the
	// shade does not report one.
	Capabilities *int `yaml:"capabilities,omitempty"`

	// Inverted flips the primary axis for this installation.
	Inverted bool `yaml:"inverted"`

	// NativeMax is the primary/secondary native scale. 0 uses the default.
	NativeMax int `yaml:"native_max"`

	// VaneNativeMax is the vane native scale. 0 derives it from the tilt range.
	VaneNativeMax int `yaml:"vane_native_max"`
}

// ReportedCapabilities returns the configured capabilities code, or -1 when
// none was given.
func (s ShadeConfig) ReportedCapabilities() int {
	if s.Capabilities == nil {
		return -1
	}
	return *s.Capabilities
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_HUB_ID
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/shades.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-shades",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Hub: HubConfig{
			ID:                   "hub-1",
			CommandTimeout:       5,
			HealthInterval:       30,
			HistoryRetentionDays: 30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("GRAYLOGIC_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Hub
	if v := os.Getenv("GRAYLOGIC_HUB_ID"); v != "" {
		cfg.Hub.ID = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
			errs = append(errs, "api.tls requires cert_file and key_file")
		}
		if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongTimeout <= 0 {
			errs = append(errs, "websocket ping_interval and pong_timeout must be positive")
		}
		if c.Security.Enabled {
			errs = append(errs, validateSecurity(c.Security)...)
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Hub.ID == "" {
		errs = append(errs, "hub.id is required")
	} else if strings.ContainsAny(c.Hub.ID, "/+#") {
		errs = append(errs, "hub.id must not contain MQTT topic characters")
	}
	if c.Hub.CommandTimeout < 0 || c.Hub.HealthInterval < 0 || c.Hub.HistoryRetentionDays < 0 {
		errs = append(errs, "hub intervals must not be negative")
	}

	errs = append(errs, validateShades(c.Shades)...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateSecurity checks the signing secret and client identities. Roles and
// hash formats are checked when the client store is built.
func validateSecurity(sec SecurityConfig) []string {
	var errs []string
	if len(sec.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("security.jwt.secret must be at least %d characters", minJWTSecretLength))
	}
	if sec.JWT.AccessTokenTTL < 0 {
		errs = append(errs, "security.jwt.access_token_ttl must not be negative")
	}
	if len(sec.Clients) == 0 {
		errs = append(errs, "security.clients must not be empty when security is enabled")
	}
	for i, cl := range sec.Clients {
		if cl.ID == "" || cl.SecretHash == "" || cl.Role == "" {
			errs = append(errs, fmt.Sprintf("security.clients[%d] requires id, secret_hash and role", i))
		}
	}
	return errs
}

// validateShades checks shade identity and scales. Unknown type or
// capabilities codes are not an error; they are reported at runtime.
func validateShades(shades []ShadeConfig) []string {
	var errs []string
	seen := make(map[string]bool, len(shades))

	for i, s := range shades {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Sprintf("shades[%d].id is required", i))
		case strings.ContainsAny(s.ID, "/+#"):
			errs = append(errs, fmt.Sprintf("shades[%d].id %q must not contain MQTT topic characters", i, s.ID))
		case seen[s.ID]:
			errs = append(errs, fmt.Sprintf("shades[%d].id %q is duplicated", i, s.ID))
		}
		seen[s.ID] = true

		if s.NativeMax < 0 {
			errs = append(errs, fmt.Sprintf("shades[%d].native_max must not be negative", i))
		}
		if s.VaneNativeMax < 0 {
			errs = append(errs, fmt.Sprintf("shades[%d].vane_native_max must not be negative", i))
		}
	}
	return errs
}

// GetCommandTimeout returns the hub command timeout as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Hub.CommandTimeout) * time.Second
}

// GetAccessTokenTTL returns the API access token lifetime as a Duration.
func (c *Config) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}

// GetHealthInterval returns the hub health publish interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Hub.HealthInterval) * time.Second
}

// GetHistoryRetention returns the position history retention as a Duration.
func (c *Config) GetHistoryRetention() time.Duration {
	return time.Duration(c.Hub.HistoryRetentionDays) * 24 * time.Hour
}
