package shade

import (
	"fmt"
	"strconv"
)

// Position scale constants.
const (
	// PercentMin is the fully open (up) normalized position.
	PercentMin = 0

	// PercentMax is the fully closed (down) normalized position.
	PercentMax = 100

	// onThreshold is the normalized position above which a binary channel reports on.
	onThreshold = 50
)

// Position is a normalized shade or vane position in percent (0-100), or the
// undefined sentinel for a position that is not known.
//
// The zero value is the undefined sentinel.
type Position struct {
	percent int
	valid   bool
}

// UnknownPosition is the undefined sentinel. Consumers must render it as an
// explicit "state unknown", never as a number.
var UnknownPosition = Position{}

// FromPercent creates a Position from a normalized percent.
//
// Returns ErrOutOfRange if percent is outside [0, 100].
func FromPercent(percent int) (Position, error) {
	if percent < PercentMin || percent > PercentMax {
		return UnknownPosition, fmt.Errorf("%w: percent must be %d-%d, got %d",
			ErrOutOfRange, PercentMin, PercentMax, percent)
	}
	return Position{percent: percent, valid: true}, nil
}

// mustPercent is FromPercent for constants known to be in range.
func mustPercent(percent int) Position {
	return Position{percent: percent, valid: true}
}

// FromNative converts a device native value on the scale [0, nativeMax] into
// a normalized Position. When inverted, native 0 corresponds to 100%.
//
// Rounding is half up: FromNative(1, 200, false) is 1%, not 0%.
//
// Returns ErrInvalidScale if nativeMax is not positive and ErrOutOfRange if
// value is outside [0, nativeMax].
func FromNative(value, nativeMax int, inverted bool) (Position, error) {
	if nativeMax <= 0 {
		return UnknownPosition, fmt.Errorf("%w: native max must be positive, got %d", ErrInvalidScale, nativeMax)
	}
	if value < 0 || value > nativeMax {
		return UnknownPosition, fmt.Errorf("%w: native value must be 0-%d, got %d",
			ErrOutOfRange, nativeMax, value)
	}
	if inverted {
		value = nativeMax - value
	}
	return Position{percent: divRoundHalfUp(value*PercentMax, nativeMax), valid: true}, nil
}

// Native converts the position to a device native value on [0, nativeMax].
// When inverted the result is nativeMax minus the scaled value.
//
// The undefined sentinel and a non-positive nativeMax both yield 0; callers
// check IsValid before sending a value to a device.
func (p Position) Native(nativeMax int, inverted bool) int {
	if !p.valid || nativeMax <= 0 {
		return 0
	}
	scaled := divRoundHalfUp(p.percent*nativeMax, PercentMax)
	if inverted {
		return nativeMax - scaled
	}
	return scaled
}

// Invert mirrors the position on its axis (100 - percent).
// The undefined sentinel is returned unchanged.
func (p Position) Invert() Position {
	if !p.valid {
		return p
	}
	return Position{percent: PercentMax - p.percent, valid: true}
}

// IsValid reports whether the position is defined.
func (p Position) IsValid() bool { return p.valid }

// Percent returns the normalized percent and whether the position is defined.
func (p Position) Percent() (int, bool) { return p.percent, p.valid }

// IsClosed reports whether the position is defined and fully closed.
func (p Position) IsClosed() bool { return p.valid && p.percent == PercentMax }

// IsOn reports whether a binary channel derived from this position is on.
func (p Position) IsOn() bool { return p.valid && p.percent > onThreshold }

// String formats the position as "NN%" or "UNDEF".
func (p Position) String() string {
	if !p.valid {
		return "UNDEF"
	}
	return strconv.Itoa(p.percent) + "%"
}

// divRoundHalfUp divides two non-negative integers rounding half up.
func divRoundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}
