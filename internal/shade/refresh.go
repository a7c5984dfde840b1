package shade

// NativeReading is a value read back from the device for one axis.
// Present is false when the device has not reported the axis yet.
type NativeReading struct {
	Value   int
	Present bool
}

// Reading is the normalized value to publish for a channel.
type Reading struct {
	Channel  Channel
	Position Position

	// On is the binary state for ChannelState, false when Position is undefined.
	On bool
}

// Known reports whether the reading carries a defined position.
func (r Reading) Known() bool { return r.Position.IsValid() }

// ChannelAxis returns the motor axis a channel reads from and writes to.
func ChannelAxis(ch Channel) (Axis, bool) {
	switch ch {
	case ChannelPosition, ChannelState:
		return AxisPrimary, true
	case ChannelSecondary:
		return AxisSecondary, true
	case ChannelVane:
		return AxisVane, true
	default:
		return "", false
	}
}

// TranslateRefresh converts a native reading into the value published on ch.
//
// Missing or out-of-range native values, and channels the actuator does not
// support, yield an undefined Position. A flaky device reading is never an
// error.
func TranslateRefresh(ch Channel, r NativeReading, a Actuator) Reading {
	out := Reading{Channel: ch, Position: UnknownPosition}
	if !r.Present || !a.supportsChannel(ch) {
		return out
	}

	var (
		pos Position
		err error
	)
	switch ch {
	case ChannelPosition, ChannelState:
		pos, err = FromNative(r.Value, a.PrimaryMax(), a.PrimaryInverted())
	case ChannelSecondary:
		pos, err = FromNative(r.Value, a.PrimaryMax(), false)
	case ChannelVane:
		pos, err = FromNative(r.Value, a.VaneMax(), false)
	}
	if err != nil {
		return out
	}

	out.Position = pos
	if ch == ChannelState {
		out.On = pos.IsOn()
	}
	return out
}

func (a Actuator) supportsChannel(ch Channel) bool {
	caps := a.Capabilities
	switch ch {
	case ChannelPosition, ChannelState:
		return caps.SupportsPrimary()
	case ChannelSecondary:
		return caps.SupportsSecondary() || caps.SupportsSecondaryOverlapped()
	case ChannelVane:
		return caps.SupportsTilt()
	default:
		return false
	}
}
