package hub

import "errors"

var (
	// ErrShadeNotConfigured is returned for a shade ID with no actuator.
	ErrShadeNotConfigured = errors.New("hub: shade not configured")

	// ErrTransportUnavailable is returned when the hub cannot be reached.
	ErrTransportUnavailable = errors.New("hub: transport unavailable")

	// ErrInvalidPayload is returned for a message that does not decode.
	ErrInvalidPayload = errors.New("hub: invalid payload")

	// ErrInvalidTopic is returned for a topic outside the bridge's namespace.
	ErrInvalidTopic = errors.New("hub: invalid topic")
)
