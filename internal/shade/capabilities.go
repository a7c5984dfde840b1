package shade

import "fmt"

// notInDatabase is the display text used when formatting a sentinel entry.
const notInDatabase = "-- not in database --"

// unknownCode is the code carried by the sentinel Type and Capabilities.
const unknownCode = -1

// Flag is a single capability bit in a CapabilityDef.
type Flag uint8

// Capability flags.
const (
	FlagPrimary Flag = 1 << iota
	FlagPrimaryInverted
	FlagSecondary
	FlagSecondaryOverlapped
	FlagTiltOnClosed
	FlagTiltAnywhere
	FlagTilt180
)

// CapabilityDef is one row of the capabilities table.
type CapabilityDef struct {
	Code    int
	Flags   Flag
	Text    string
	Comment string
}

// TypeDef is one row of the shade type table.
//
// TypeCapabilities is the type specific override (-1 for none). Some physical
// types behave like a different capabilities class than the one they report.
type TypeDef struct {
	Code             int
	Capabilities     int
	TypeCapabilities int
	Text             string
	Comment          string
}

// KnownCapabilities is the database of shade capabilities.
var KnownCapabilities = []CapabilityDef{
	{Code: 0, Flags: FlagPrimary, Text: "Bottom Up"},
	{Code: 1, Flags: FlagPrimary | FlagTiltOnClosed, Text: "Bottom Up Tilt 90°"},
	{Code: 2, Flags: FlagPrimary | FlagTiltAnywhere | FlagTilt180, Text: "Bottom Up Tilt 180°"},
	{Code: 3, Flags: FlagPrimary | FlagTiltAnywhere | FlagTilt180, Text: "Vertical Tilt 180°"},
	{Code: 4, Flags: FlagPrimary, Text: "Vertical"},
	{Code: 5, Flags: FlagTiltAnywhere | FlagTilt180, Text: "Tilt Only 180°"},
	{Code: 6, Flags: FlagPrimaryInverted, Text: "Top Down"},
	{Code: 7, Flags: FlagPrimary | FlagSecondary, Text: "Top Down Bottom Up"},
	{Code: 8, Flags: FlagPrimary | FlagSecondaryOverlapped, Text: "Dual Overlapped"},
	{Code: 9, Flags: FlagPrimary | FlagTiltOnClosed | FlagSecondaryOverlapped, Text: "Dual Overlapped Tilt 90°",
		Comment: "The tilt on closed function applies to the primary shade"},
}

// KnownTypes is the database of shade types and their capabilities.
var KnownTypes = []TypeDef{
	{Code: 1, Capabilities: 0, TypeCapabilities: unknownCode, Text: "Generic"},
	{Code: 4, Capabilities: 0, TypeCapabilities: unknownCode, Text: "Roman"},
	{Code: 5, Capabilities: 0, TypeCapabilities: unknownCode, Text: "Bottom Up"},
	{Code: 6, Capabilities: 0, TypeCapabilities: unknownCode, Text: "Duette"},
	{Code: 7, Capabilities: 6, TypeCapabilities: unknownCode, Text: "Top Down"},
	{Code: 8, Capabilities: 7, TypeCapabilities: unknownCode, Text: "Duette Top Down Bottom Up"},
	{Code: 9, Capabilities: 7, TypeCapabilities: unknownCode, Text: "Duette DuoLite Top Down Bottom Up"},
	{Code: 18, Capabilities: 1, TypeCapabilities: unknownCode, Text: "Pirouette"},
	{Code: 23, Capabilities: 1, TypeCapabilities: unknownCode, Text: "Silhouette"},
	{Code: 38, Capabilities: 9, TypeCapabilities: unknownCode, Text: "Silhouette Duolite"},
	{Code: 42, Capabilities: 0, TypeCapabilities: unknownCode, Text: "M25T Roller Blind"},
	{Code: 43, Capabilities: 1, TypeCapabilities: unknownCode, Text: "Facette"},
	{Code: 44, Capabilities: 0, TypeCapabilities: 1, Text: "Twist",
		Comment: "Shade has functionality of a capabilities 1 shade"},
	{Code: 47, Capabilities: 7, TypeCapabilities: unknownCode, Text: "Pleated Top Down Bottom Up"},
	{Code: 49, Capabilities: 0, TypeCapabilities: unknownCode, Text: "AC Roller"},
	{Code: 51, Capabilities: 2, TypeCapabilities: unknownCode, Text: "Venetian"},
	{Code: 54, Capabilities: 3, TypeCapabilities: unknownCode, Text: "Vertical Slats Left Stack"},
	{Code: 55, Capabilities: 3, TypeCapabilities: unknownCode, Text: "Vertical Slats Right Stack"},
	{Code: 56, Capabilities: 3, TypeCapabilities: unknownCode, Text: "Vertical Slats Split Stack"},
	{Code: 62, Capabilities: 2, TypeCapabilities: unknownCode, Text: "Venetian"},
	{Code: 65, Capabilities: 8, TypeCapabilities: unknownCode, Text: "Vignette Duolite"},
	{Code: 66, Capabilities: 5, TypeCapabilities: unknownCode, Text: "Shutter"},
	{Code: 69, Capabilities: 4, TypeCapabilities: unknownCode, Text: "Curtain Left Stack"},
	{Code: 70, Capabilities: 4, TypeCapabilities: unknownCode, Text: "Curtain Right Stack"},
	{Code: 71, Capabilities: 4, TypeCapabilities: unknownCode, Text: "Curtain Split Stack"},
	{Code: 79, Capabilities: 8, TypeCapabilities: unknownCode, Text: "Duolite Lift"},
}

// Capabilities describes the functionality supported by a capabilities code.
// Values are immutable; the zero value supports nothing.
type Capabilities struct {
	code    int
	text    string
	comment string

	primary             bool
	primaryInverted     bool
	secondary           bool
	secondaryOverlapped bool
	tiltOnClosed        bool
	tiltAnywhere        bool
	tilt180             bool
}

// newCapabilities builds a profile from a table row.
// Tilt on closed is dropped when tilt anywhere is set, and an inverted
// primary always implies a primary.
func newCapabilities(def CapabilityDef) Capabilities {
	has := func(f Flag) bool { return def.Flags&f != 0 }

	c := Capabilities{
		code:                def.Code,
		text:                def.Text,
		comment:             def.Comment,
		primary:             has(FlagPrimary) || has(FlagPrimaryInverted),
		primaryInverted:     has(FlagPrimaryInverted),
		secondary:           has(FlagSecondary),
		secondaryOverlapped: has(FlagSecondaryOverlapped),
		tiltOnClosed:        has(FlagTiltOnClosed),
		tiltAnywhere:        has(FlagTiltAnywhere),
		tilt180:             has(FlagTilt180),
	}
	if c.tiltAnywhere {
		c.tiltOnClosed = false
	}
	return c
}

// UnknownCapabilities returns the sentinel profile used for codes that are not
// in the database. It supports no axis at all.
func UnknownCapabilities() Capabilities {
	return Capabilities{code: unknownCode}
}

// Code returns the capabilities code, or -1 for the sentinel.
func (c Capabilities) Code() int { return c.code }

// Text returns the display text (empty for the sentinel).
func (c Capabilities) Text() string { return c.text }

// Comment returns the diagnostic comment, if any.
func (c Capabilities) Comment() string { return c.comment }

// IsKnown reports whether the profile came from the database.
func (c Capabilities) IsKnown() bool { return c.code != unknownCode }

// SupportsPrimary reports whether there is a primary shade.
func (c Capabilities) SupportsPrimary() bool { return c.primary }

// IsPrimaryInverted reports whether the primary shade moves top down.
func (c Capabilities) IsPrimaryInverted() bool { return c.primaryInverted }

// SupportsSecondary reports whether there is an independent secondary shade.
func (c Capabilities) SupportsSecondary() bool { return c.secondary }

// SupportsSecondaryOverlapped reports whether there is an overlapped secondary
// shade, e.g. a DuoLite or blackout layer.
func (c Capabilities) SupportsSecondaryOverlapped() bool { return c.secondaryOverlapped }

// SupportsTiltAnywhere reports whether vanes have their own motor.
func (c Capabilities) SupportsTiltAnywhere() bool { return c.tiltAnywhere }

// SupportsTiltOnClosed reports whether the vanes can be tilted by driving the
// main motor further once the shade is fully closed.
//
// Always false when tilt anywhere is supported.
func (c Capabilities) SupportsTiltOnClosed() bool { return c.tiltOnClosed && !c.tiltAnywhere }

// SupportsTilt180 reports whether the tilt range is 180° instead of 90°.
func (c Capabilities) SupportsTilt180() bool { return c.tilt180 }

// SupportsTilt reports whether the vanes can be moved at all.
func (c Capabilities) SupportsTilt() bool { return c.tiltAnywhere || c.SupportsTiltOnClosed() }

// String formats the profile as "text (code)".
func (c Capabilities) String() string {
	return formatEntry(c.text, c.code)
}

// Type is a shade type entry from the database.
type Type struct {
	code             int
	capabilities     int
	typeCapabilities int
	text             string
	comment          string
}

// UnknownType returns the sentinel type used for codes that are not in the database.
func UnknownType() Type {
	return Type{code: unknownCode, capabilities: unknownCode, typeCapabilities: unknownCode}
}

// Code returns the type code, or -1 for the sentinel.
func (t Type) Code() int { return t.code }

// Text returns the display text (empty for the sentinel).
func (t Type) Text() string { return t.text }

// Comment returns the diagnostic comment, if any.
func (t Type) Comment() string { return t.comment }

// IsKnown reports whether the type came from the database.
func (t Type) IsKnown() bool { return t.code != unknownCode }

// Capabilities returns the default capabilities code for the type.
func (t Type) Capabilities() int { return t.capabilities }

// TypeCapabilities returns the type specific override code, or -1 for none.
func (t Type) TypeCapabilities() int { return t.typeCapabilities }

// HasTypeCapabilities reports whether the type declares an override.
func (t Type) HasTypeCapabilities() bool { return t.typeCapabilities >= 0 }

// String formats the type as "text (code)".
func (t Type) String() string {
	return formatEntry(t.text, t.code)
}

func formatEntry(text string, code int) string {
	if code == unknownCode {
		text = notInDatabase
	}
	return fmt.Sprintf("%s (%d)", text, code)
}

// Lookup maps built once at init and never written afterwards.
var (
	capabilitiesByCode map[int]Capabilities
	typesByCode        map[int]Type
)

func init() {
	capabilitiesByCode = make(map[int]Capabilities, len(KnownCapabilities))
	for _, def := range KnownCapabilities {
		capabilitiesByCode[def.Code] = newCapabilities(def)
	}

	typesByCode = make(map[int]Type, len(KnownTypes))
	for _, def := range KnownTypes {
		typesByCode[def.Code] = Type{
			code:             def.Code,
			capabilities:     def.Capabilities,
			typeCapabilities: def.TypeCapabilities,
			text:             def.Text,
			comment:          def.Comment,
		}
	}
}

// LookupType returns the database entry for a type code.
func LookupType(code int) (Type, bool) {
	t, ok := typesByCode[code]
	return t, ok
}

// TypeOrDefault returns the database entry for a type code, or UnknownType.
func TypeOrDefault(code int) Type {
	if t, ok := typesByCode[code]; ok {
		return t
	}
	return UnknownType()
}

// IsTypeKnown reports whether a type code is in the database.
func IsTypeKnown(code int) bool {
	_, ok := typesByCode[code]
	return ok
}

// LookupCapabilities returns the database entry for a capabilities code.
func LookupCapabilities(code int) (Capabilities, bool) {
	c, ok := capabilitiesByCode[code]
	return c, ok
}

// CapabilitiesOrDefault returns the database entry for a capabilities code,
// or UnknownCapabilities.
func CapabilitiesOrDefault(code int) Capabilities {
	if c, ok := capabilitiesByCode[code]; ok {
		return c
	}
	return UnknownCapabilities()
}

// IsCapabilitiesKnown reports whether a capabilities code is in the database.
func IsCapabilitiesKnown(code int) bool {
	_, ok := capabilitiesByCode[code]
	return ok
}

// EffectiveCapabilitiesForType resolves the capabilities a type really has:
// the type specific override when declared, otherwise the type's default
// capabilities. Unknown types resolve to UnknownCapabilities.
func EffectiveCapabilitiesForType(code int) Capabilities {
	t, ok := typesByCode[code]
	if !ok {
		return UnknownCapabilities()
	}
	if t.HasTypeCapabilities() {
		if c, ok := capabilitiesByCode[t.typeCapabilities]; ok {
			return c
		}
	}
	return CapabilitiesOrDefault(t.capabilities)
}
