// Package config handles loading and validating Gray Logic Shades configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/shades.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range cfg.Shades {
//	    fmt.Println(s.ID, s.Type)
//	}
package config
