// Package influxdb provides InfluxDB connectivity for shade telemetry.
//
// It wraps the official influxdb-client-go v2 library. The hub bridge writes a
// shade_position point for every defined channel reading and a shade_command
// point for every translated command, so movement history can be graphed
// alongside the rest of the building.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry is optional
//	}
//	defer client.Close()
//
//	client.WriteShadePosition("lounge-left", "position", 40, 102)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Asynchronous write errors are delivered to the SetOnError
// callback. A nil *Client accepts writes and drops them.
package influxdb
