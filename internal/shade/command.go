package shade

import "fmt"

// Channel is the user-facing control surface a command targets.
type Channel string

// Channels.
const (
	ChannelPosition  Channel = "position"
	ChannelSecondary Channel = "secondary"
	ChannelVane      Channel = "vane"
	ChannelState     Channel = "state"
)

// Axis is a physical motor axis of a shade.
type Axis string

// Axes.
const (
	AxisPrimary   Axis = "primary"
	AxisSecondary Axis = "secondary"
	AxisVane      Axis = "vane"
)

// CommandKind is the semantic of an incoming command.
type CommandKind string

// Command kinds.
const (
	CommandPercent CommandKind = "percent"
	CommandUp      CommandKind = "up"
	CommandDown    CommandKind = "down"
	CommandStop    CommandKind = "stop"
	CommandOn      CommandKind = "on"
	CommandOff     CommandKind = "off"
	CommandRefresh CommandKind = "refresh"
)

// Command is an already-classified command. Percent is only read for
// CommandPercent.
type Command struct {
	Kind    CommandKind
	Percent int
}

// Action is what the transport must do with a NativeCommand.
type Action string

// Actions.
const (
	// ActionNone means nothing is sent to the device.
	ActionNone Action = "none"

	// ActionMove carries one or two axis targets.
	ActionMove Action = "move"

	// ActionStop halts all motion and carries no targets.
	ActionStop Action = "stop"
)

// AxisTarget is a native value for a single axis.
type AxisTarget struct {
	Axis  Axis `json:"axis"`
	Value int  `json:"value"`
}

// NativeCommand is the translator output handed to the transport.
type NativeCommand struct {
	Action  Action       `json:"action"`
	Targets []AxisTarget `json:"targets,omitempty"`
}

// Target returns the native value for axis, if the command carries one.
func (c NativeCommand) Target(axis Axis) (int, bool) {
	for _, t := range c.Targets {
		if t.Axis == axis {
			return t.Value, true
		}
	}
	return 0, false
}

// IsNoop reports whether nothing needs to be sent.
func (c NativeCommand) IsNoop() bool { return c.Action == ActionNone }

// CommandRequest is the input of TranslateCommand.
//
// CurrentMain is the last known main position; it only matters for
// tilt-on-closed vanes and may be UnknownPosition.
type CommandRequest struct {
	Channel     Channel
	Command     Command
	Actuator    Actuator
	CurrentMain Position
}

var noop = NativeCommand{Action: ActionNone}

// TranslateCommand converts a normalized command into the native axis values
// the device expects.
//
// Refresh commands, and commands that have no meaning on the addressed
// channel (e.g. on/off on a vane), are no-ops rather than errors.
//
// Returns ErrOutOfRange, ErrUnsupportedChannel, ErrUnsupportedForCurrentState
// or ErrInvalidCommand.
func TranslateCommand(req CommandRequest) (NativeCommand, error) {
	if req.Command.Kind == CommandRefresh {
		return noop, nil
	}
	if !isKnownCommand(req.Command.Kind) {
		return noop, fmt.Errorf("%w: unknown command kind %q", ErrInvalidCommand, req.Command.Kind)
	}

	a := req.Actuator
	caps := a.Capabilities

	switch req.Channel {
	case ChannelPosition:
		if !caps.SupportsPrimary() {
			return noop, unsupported(req.Channel, caps)
		}
		return translateLinear(AxisPrimary, req.Command, a.PrimaryMax(), a.PrimaryInverted(), false)

	case ChannelSecondary:
		if !caps.SupportsSecondary() && !caps.SupportsSecondaryOverlapped() {
			return noop, unsupported(req.Channel, caps)
		}
		return translateLinear(AxisSecondary, req.Command, a.PrimaryMax(), false, false)

	case ChannelState:
		if !caps.SupportsPrimary() {
			return noop, unsupported(req.Channel, caps)
		}
		return translateLinear(AxisPrimary, req.Command, a.PrimaryMax(), a.PrimaryInverted(), true)

	case ChannelVane:
		switch {
		case caps.SupportsTiltAnywhere():
			return translateLinear(AxisVane, req.Command, a.VaneMax(), false, false)
		case caps.SupportsTiltOnClosed():
			return translateTiltOnClosed(req)
		default:
			return noop, unsupported(req.Channel, caps)
		}

	default:
		return noop, fmt.Errorf("%w: unknown channel %q", ErrInvalidCommand, req.Channel)
	}
}

// translateLinear handles a single independently driven axis. Binary
// channels accept on/off only; the others accept percent and up/down.
func translateLinear(axis Axis, cmd Command, nativeMax int, inverted, binary bool) (NativeCommand, error) {
	if cmd.Kind == CommandStop {
		return NativeCommand{Action: ActionStop}, nil
	}

	pos, ok, err := targetPosition(cmd, binary)
	if err != nil || !ok {
		return noop, err
	}
	return move(AxisTarget{Axis: axis, Value: pos.Native(nativeMax, inverted)}), nil
}

// translateTiltOnClosed drives the vanes of a single motor shade. The main
// motor must already be closed; the result re-asserts the closed main
// position together with the vane target.
func translateTiltOnClosed(req CommandRequest) (NativeCommand, error) {
	if req.Command.Kind == CommandStop {
		return NativeCommand{Action: ActionStop}, nil
	}

	pos, ok, err := targetPosition(req.Command, false)
	if err != nil || !ok {
		return noop, err
	}

	if !req.CurrentMain.IsClosed() {
		return noop, fmt.Errorf("%w: vanes only tilt when the shade is closed (main position %s); close the shade first",
			ErrUnsupportedForCurrentState, req.CurrentMain)
	}

	a := req.Actuator
	closed := mustPercent(PercentMax)
	return move(
		AxisTarget{Axis: AxisPrimary, Value: closed.Native(a.PrimaryMax(), a.PrimaryInverted())},
		AxisTarget{Axis: AxisVane, Value: pos.Native(a.VaneMax(), false)},
	), nil
}

// targetPosition maps a command to the normalized position it asks for.
// ok is false when the command has no meaning on the channel.
func targetPosition(cmd Command, binary bool) (Position, bool, error) {
	switch cmd.Kind {
	case CommandOn:
		return mustPercent(PercentMax), binary, nil
	case CommandOff:
		return mustPercent(PercentMin), binary, nil
	}
	if binary {
		return UnknownPosition, false, nil
	}

	switch cmd.Kind {
	case CommandPercent:
		pos, err := FromPercent(cmd.Percent)
		if err != nil {
			return UnknownPosition, false, err
		}
		return pos, true, nil
	case CommandUp:
		return mustPercent(PercentMin), true, nil
	case CommandDown:
		return mustPercent(PercentMax), true, nil
	default:
		return UnknownPosition, false, nil
	}
}

func move(targets ...AxisTarget) NativeCommand {
	return NativeCommand{Action: ActionMove, Targets: targets}
}

func unsupported(ch Channel, caps Capabilities) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedChannel, ch, caps)
}

func isKnownCommand(k CommandKind) bool {
	switch k {
	case CommandPercent, CommandUp, CommandDown, CommandStop, CommandOn, CommandOff, CommandRefresh:
		return true
	}
	return false
}
