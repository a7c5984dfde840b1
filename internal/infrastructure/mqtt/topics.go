package mqtt

import (
	"fmt"
	"strings"
)

// Topic roots.
//
// Shade topics use the flat scheme graylogic/{category}/shade/{shade_id}.
// Native hub topics carry device scale values and are namespaced per hub.
const (
	TopicPrefix       = "graylogic"
	TopicPrefixSystem = "graylogic/system"
	TopicPrefixNative = "graylogic/native"

	shadeProtocol = "shade"
)

// Topics provides builders for the shade service MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.ShadeState("kitchen")        // graylogic/state/shade/kitchen
//	topics.NativeSet("hub-1", "kitchen") // graylogic/native/hub-1/kitchen/set
type Topics struct{}

// ShadeCommand returns the topic normalized commands arrive on.
//
// Example: graylogic/command/shade/kitchen
func (Topics) ShadeCommand(shadeID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, shadeProtocol, shadeID)
}

// ShadeAck returns the topic command acknowledgements are published on.
//
// Example: graylogic/ack/shade/kitchen
func (Topics) ShadeAck(shadeID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, shadeProtocol, shadeID)
}

// ShadeState returns the retained normalized state topic.
//
// Example: graylogic/state/shade/kitchen
func (Topics) ShadeState(shadeID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, shadeProtocol, shadeID)
}

// NativeSet returns the topic native commands are sent to the hub on.
//
// Example: graylogic/native/hub-1/kitchen/set
func (Topics) NativeSet(hubID, shadeID string) string {
	return fmt.Sprintf("%s/%s/%s/set", TopicPrefixNative, hubID, shadeID)
}

// NativePosition returns the topic the hub reports native readings on.
//
// Example: graylogic/native/hub-1/kitchen/position
func (Topics) NativePosition(hubID, shadeID string) string {
	return fmt.Sprintf("%s/%s/%s/position", TopicPrefixNative, hubID, shadeID)
}

// BridgeHealth returns the retained health topic of a hub bridge.
//
// Example: graylogic/health/hub-1
func (Topics) BridgeHealth(hubID string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, hubID)
}

// SystemStatus returns the service online/offline status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllShadeCommands matches commands for every shade.
//
// Pattern: graylogic/command/shade/+
func (Topics) AllShadeCommands() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, shadeProtocol)
}

// AllShadeStates matches the state topic of every shade.
//
// Pattern: graylogic/state/shade/+
func (Topics) AllShadeStates() string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefix, shadeProtocol)
}

// AllNativePositions matches native readings from every shade of a hub.
//
// Pattern: graylogic/native/hub-1/+/position
func (Topics) AllNativePositions(hubID string) string {
	return fmt.Sprintf("%s/%s/+/position", TopicPrefixNative, hubID)
}

// ShadeIDFromCommand extracts the shade ID from a ShadeCommand topic.
func (Topics) ShadeIDFromCommand(topic string) (string, bool) {
	prefix := fmt.Sprintf("%s/command/%s/", TopicPrefix, shadeProtocol)
	id, ok := strings.CutPrefix(topic, prefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// ShadeIDFromNativePosition extracts the shade ID from a NativePosition topic.
func (Topics) ShadeIDFromNativePosition(hubID, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, fmt.Sprintf("%s/%s/", TopicPrefixNative, hubID))
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/position")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
