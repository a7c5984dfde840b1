// Package history keeps a local record of translated shade readings.
//
// The hub bridge records every channel value it publishes, including
// undefined ones, so operators can see what a shade reported even when
// InfluxDB is not configured. RunPruner enforces the retention period
// from the hub configuration.
package history
