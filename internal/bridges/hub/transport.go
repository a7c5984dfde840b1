package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// Transport delivers native commands to the shade hub.
type Transport interface {
	// Send delivers cmd to shadeID. It must honour ctx cancellation.
	Send(ctx context.Context, shadeID, commandID string, cmd shade.NativeCommand) error

	// IsConnected reports whether the hub is reachable.
	IsConnected() bool
}

// Publisher is the subset of the MQTT client used for publishing.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// MQTTTransport sends native commands as JSON on the hub's set topics.
type MQTTTransport struct {
	publisher Publisher
	hubID     string
}

// NewMQTTTransport creates a transport for hubID.
func NewMQTTTransport(publisher Publisher, hubID string) *MQTTTransport {
	return &MQTTTransport{publisher: publisher, hubID: hubID}
}

// Send publishes cmd to graylogic/native/{hub}/{shade}/set with QoS 1.
func (t *MQTTTransport) Send(ctx context.Context, shadeID, commandID string, cmd shade.NativeCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.IsConnected() {
		return ErrTransportUnavailable
	}

	msg := NativeSetMessage{
		CommandID: commandID,
		Timestamp: time.Now().UTC(),
		Action:    cmd.Action,
	}
	if len(cmd.Targets) > 0 {
		msg.Targets = make(map[shade.Axis]int, len(cmd.Targets))
		for _, target := range cmd.Targets {
			msg.Targets[target.Axis] = target.Value
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal native command: %w", err)
	}
	if err := t.publisher.Publish(mqtt.Topics{}.NativeSet(t.hubID, shadeID), payload, 1, false); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}
	return nil
}

// IsConnected reports whether the MQTT client is connected.
func (t *MQTTTransport) IsConnected() bool {
	return t.publisher != nil && t.publisher.IsConnected()
}
