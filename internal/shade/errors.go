package shade

import "errors"

// Domain errors for the shade package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, shade.ErrUnsupportedForCurrentState) {
//	    // send a close command first, then retry the tilt
//	}
var (
	// ErrOutOfRange is returned when a percent or native value lies outside its domain.
	ErrOutOfRange = errors.New("shade: value out of range")

	// ErrInvalidScale is returned when a native scale maximum is not positive.
	ErrInvalidScale = errors.New("shade: invalid native scale")

	// ErrUnsupportedChannel is returned when the resolved capabilities do not
	// support the axis a command targets.
	ErrUnsupportedChannel = errors.New("shade: channel not supported by capabilities")

	// ErrUnsupportedForCurrentState is returned when a command is valid for the
	// shade but not in its current state (e.g. tilt-on-closed while open).
	ErrUnsupportedForCurrentState = errors.New("shade: command not supported in current state")

	// ErrInvalidCommand is returned for a command or channel kind the
	// translator does not recognise.
	ErrInvalidCommand = errors.New("shade: invalid command")

	// ErrUnknownRegistryEntry marks a type or capabilities code that is absent
	// from the database. Never returned by translation; carried by Diagnostic.
	ErrUnknownRegistryEntry = errors.New("shade: not in database")
)
