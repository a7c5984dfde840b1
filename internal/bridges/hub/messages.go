package hub

import (
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// CommandMessage is a normalized shade command.
// Topic: graylogic/command/shade/{shade_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement. Generated when empty.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Channel is position, secondary, vane or state. Defaults to position.
	Channel shade.Channel `json:"channel"`

	// Command is percent, up, down, stop, on, off or refresh.
	Command shade.CommandKind `json:"command"`

	// Percent is required for the percent command.
	Percent *int `json:"percent,omitempty"`

	// Source indicates where the command originated (api, automation, scene).
	Source string `json:"source,omitempty"`
}

// AckStatus is the outcome of a command.
type AckStatus string

// Acknowledgement statuses.
const (
	// AckAccepted means a native command was sent, or a refresh was served.
	AckAccepted AckStatus = "accepted"

	// AckIgnored means the command has no effect on the addressed channel.
	AckIgnored AckStatus = "ignored"

	// AckFailed means the command was rejected or could not be delivered.
	AckFailed AckStatus = "failed"
)

// Error codes for failed acknowledgements.
const (
	ErrCodeOutOfRange          = "OUT_OF_RANGE"
	ErrCodeUnsupportedChannel  = "UNSUPPORTED_CHANNEL"
	ErrCodeUnsupportedForState = "UNSUPPORTED_FOR_STATE"
	ErrCodeInvalidCommand      = "INVALID_COMMAND"
	ErrCodeNotConfigured       = "NOT_CONFIGURED"
	ErrCodeDeviceUnreachable   = "DEVICE_UNREACHABLE"
	ErrCodeBridgeError         = "BRIDGE_ERROR"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/shade/{shade_id}
type AckMessage struct {
	CommandID string        `json:"command_id"`
	Timestamp time.Time     `json:"timestamp"`
	ShadeID   string        `json:"shade_id"`
	Channel   shade.Channel `json:"channel,omitempty"`
	Status    AckStatus     `json:"status"`

	// Native is the command sent to the hub, set when Status is accepted.
	Native *shade.NativeCommand `json:"native,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError describes a failed command.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StateMessage is the normalized state of a shade.
// Topic: graylogic/state/shade/{shade_id}
// QoS: 1, Retained: Yes
//
// State holds one key per supported channel. Percent channels carry an
// integer, the state channel carries a boolean, and an undefined reading is
// null.
type StateMessage struct {
	ShadeID   string         `json:"shade_id"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
}

// FeedbackMessage is a native reading reported by the hub.
// Topic: graylogic/native/{hub_id}/{shade_id}/position
//
// A nil axis means the hub did not report it. Properties carries the
// capability flags the shade itself advertises, when the hub knows them.
type FeedbackMessage struct {
	Primary    *int            `json:"primary"`
	Secondary  *int            `json:"secondary,omitempty"`
	Vane       *int            `json:"vane,omitempty"`
	Properties map[string]bool `json:"properties,omitempty"`
}

// reading returns the native reading of axis.
func (m FeedbackMessage) reading(axis shade.Axis) shade.NativeReading {
	var v *int
	switch axis {
	case shade.AxisPrimary:
		v = m.Primary
	case shade.AxisSecondary:
		v = m.Secondary
	case shade.AxisVane:
		v = m.Vane
	}
	if v == nil {
		return shade.NativeReading{}
	}
	return shade.NativeReading{Value: *v, Present: true}
}

// NativeSetMessage is a native command sent to the hub.
// Topic: graylogic/native/{hub_id}/{shade_id}/set
type NativeSetMessage struct {
	CommandID string             `json:"command_id"`
	Timestamp time.Time          `json:"timestamp"`
	Action    shade.Action       `json:"action"`
	Targets   map[shade.Axis]int `json:"targets,omitempty"`
}

// HealthStatus is the operational status of the bridge.
type HealthStatus string

// Health statuses.
const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge status.
// Topic: graylogic/health/{hub_id}
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string           `json:"bridge"`
	Timestamp     time.Time        `json:"timestamp"`
	Status        HealthStatus     `json:"status"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	ShadesManaged int              `json:"shades_managed"`
	Statistics    BridgeStatistics `json:"statistics"`
	Reason        string           `json:"reason,omitempty"`
}

// BridgeStatistics counts bridge traffic since start.
type BridgeStatistics struct {
	CommandsReceived uint64 `json:"commands_received"`
	CommandsSent     uint64 `json:"commands_sent"`
	FeedbackReceived uint64 `json:"feedback_received"`
	Errors           uint64 `json:"errors"`
}
