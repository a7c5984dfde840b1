package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementShadePosition = "shade_position"
	measurementShadeCommand  = "shade_command"
)

// WriteShadePosition records a translated channel position together with the
// native value it was read from. Callers skip undefined readings.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
//	client.WriteShadePosition("lounge-left", "position", 40, 102)
func (c *Client) WriteShadePosition(shadeID, channel string, percent, native int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(shadePositionPoint(shadeID, channel, percent, native, time.Now()))
}

// WriteShadeCommand records the outcome of a command sent to a shade.
func (c *Client) WriteShadeCommand(shadeID, channel, command string, accepted bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(shadeCommandPoint(shadeID, channel, command, accepted, time.Now()))
}

func shadePositionPoint(shadeID, channel string, percent, native int, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementShadePosition,
		map[string]string{
			"shade_id": shadeID,
			"channel":  channel,
		},
		map[string]interface{}{
			"percent": percent,
			"native":  native,
		},
		ts,
	)
}

func shadeCommandPoint(shadeID, channel, command string, accepted bool, ts time.Time) *write.Point {
	return write.NewPoint(
		measurementShadeCommand,
		map[string]string{
			"shade_id": shadeID,
			"channel":  channel,
			"command":  command,
		},
		map[string]interface{}{
			"accepted": accepted,
		},
		ts,
	)
}
