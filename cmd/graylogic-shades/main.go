// Gray Logic Shades - window covering bridge
//
// Translates percentage commands from the rest of the building into native
// hub positions and native feedback back into percentages, per shade, based
// on the capabilities each shade type supports.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-shades/migrations"

	"github.com/nerrad567/gray-logic-shades/internal/api"
	"github.com/nerrad567/gray-logic-shades/internal/audit"
	"github.com/nerrad567/gray-logic-shades/internal/auth"
	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
	"github.com/nerrad567/gray-logic-shades/internal/diagnostics"
	"github.com/nerrad567/gray-logic-shades/internal/history"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyPruneInterval is how often old position history is deleted.
const historyPruneInterval = 6 * time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "hash-secret" {
		if err := hashSecret(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// hashSecret reads an API client secret from the first line of r and writes
// its Argon2id hash for the security.clients section of config.yaml.
func hashSecret(r io.Reader, w io.Writer) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading secret: %w", err)
	}
	hash, err := auth.HashSecret(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return fmt.Errorf("hashing secret: %w", err)
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Shades",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "shades", len(cfg.Shades))

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // shutdown

	db, err := database.Open(database.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	diagRepo := diagnostics.NewSQLiteRepository(db.DB)
	recorder := diagnostics.NewRecorder(diagRepo, log)
	historyRepo := history.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	go history.RunPruner(ctx, historyRepo, cfg.GetHistoryRetention(), historyPruneInterval, log)

	opts := hub.Options{
		HubID:          cfg.Hub.ID,
		Version:        version,
		MQTTClient:     mqttClient,
		Shades:         actuatorConfigs(cfg.Shades),
		Diagnostics:    recorder,
		History:        historyRepo,
		Audit:          auditRepo,
		Logger:         log,
		CommandTimeout: cfg.GetCommandTimeout(),
		HealthInterval: cfg.GetHealthInterval(),
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}

	bridge, err := hub.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating hub bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting hub bridge: %w", err)
	}
	defer func() {
		log.Info("stopping hub bridge")
		bridge.Stop()
	}()
	log.Info("hub bridge started",
		"hub_id", cfg.Hub.ID,
		"shades", len(cfg.Shades),
		"unsupported_combinations", recorder.Distinct(),
	)

	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Security:    cfg.Security,
			Logger:      log,
			Shades:      bridge,
			History:     historyRepo,
			Diagnostics: diagRepo,
			Audit:       auditRepo,
			MQTT:        mqttClient,
			Version:     version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectInfluxDB connects when telemetry is enabled. A nil client means disabled.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when telemetry is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// actuatorConfigs maps the shades section of config.yaml.
func actuatorConfigs(shades []config.ShadeConfig) []shade.ActuatorConfig {
	out := make([]shade.ActuatorConfig, 0, len(shades))
	for _, s := range shades {
		out = append(out, shade.ActuatorConfig{
			ID:            s.ID,
			Type:          s.Type,
			Capabilities:  s.ReportedCapabilities(),
			Inverted:      s.Inverted,
			NativeMax:     s.NativeMax,
			VaneNativeMax: s.VaneNativeMax,
		})
	}
	return out
}
