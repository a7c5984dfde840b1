package shade

// Native scale defaults.
const (
	// DefaultNativeMax is the primary and secondary scale when none is configured.
	DefaultNativeMax = 100

	vaneNativeMax90  = 90
	vaneNativeMax180 = 180
)

// Observed property keys accepted by CheckObservedProperty.
const (
	PropertySecondary    = "secondary"
	PropertyTiltAnywhere = "tilt_anywhere"
)

// NotReported is the capabilities code used when a shade does not report one.
const NotReported = unknownCode

// ActuatorConfig is the declared identity of a physical shade.
type ActuatorConfig struct {
	ID string

	// Type is the shade type code.
	Type int

	// Capabilities is the capabilities code reported by the shade, or NotReported.
	Capabilities int

	// Inverted flips the primary axis at installation level, on top of any
	// inversion the capabilities imply.
	Inverted bool

	// NativeMax is the primary/secondary scale. Zero means DefaultNativeMax.
	NativeMax int

	// VaneNativeMax is the vane scale. Zero means 180 or 90 depending on the
	// tilt range of the resolved capabilities.
	VaneNativeMax int
}

// Actuator is a shade with its resolved capability profile.
type Actuator struct {
	ID            string
	Type          Type
	Capabilities  Capabilities
	Inverted      bool
	NativeMax     int
	VaneNativeMax int
}

// ResolveActuator looks up the type and capabilities of cfg and picks the
// effective profile. Registry gaps are reported to sink (which may be nil)
// and never stop resolution.
//
// Precedence: the type specific override, then the reported capabilities,
// then the type's default capabilities, then UnknownCapabilities.
func ResolveActuator(cfg ActuatorConfig, sink DiagnosticSink) Actuator {
	diag := Diagnostic{ShadeID: cfg.ID, Type: cfg.Type, Capabilities: cfg.Capabilities}

	typ, typeKnown := LookupType(cfg.Type)
	if !typeKnown {
		typ = UnknownType()
		d := diag
		d.Kind = DiagnosticTypeUnknown
		report(sink, d)
	}

	reported, reportedKnown := Capabilities{}, false
	if cfg.Capabilities != NotReported {
		reported, reportedKnown = LookupCapabilities(cfg.Capabilities)
		switch {
		case !reportedKnown:
			d := diag
			d.Kind = DiagnosticCapabilityUnknown
			report(sink, d)
		case typeKnown && typ.Capabilities() != cfg.Capabilities:
			d := diag
			d.Kind = DiagnosticCapabilityMismatch
			report(sink, d)
		}
	}

	caps := UnknownCapabilities()
	switch {
	case typeKnown && typ.HasTypeCapabilities() && IsCapabilitiesKnown(typ.TypeCapabilities()):
		caps = CapabilitiesOrDefault(typ.TypeCapabilities())
	case reportedKnown:
		caps = reported
	case typeKnown:
		caps = CapabilitiesOrDefault(typ.Capabilities())
	}

	return Actuator{
		ID:            cfg.ID,
		Type:          typ,
		Capabilities:  caps,
		Inverted:      cfg.Inverted,
		NativeMax:     cfg.NativeMax,
		VaneNativeMax: cfg.VaneNativeMax,
	}
}

// PrimaryInverted reports whether the primary axis runs inverted once the
// capabilities and the installation flag are combined.
func (a Actuator) PrimaryInverted() bool {
	return a.Capabilities.IsPrimaryInverted() != a.Inverted
}

// PrimaryMax returns the native scale of the primary and secondary axes.
func (a Actuator) PrimaryMax() int {
	if a.NativeMax > 0 {
		return a.NativeMax
	}
	return DefaultNativeMax
}

// VaneMax returns the native scale of the vane axis.
func (a Actuator) VaneMax() int {
	if a.VaneNativeMax > 0 {
		return a.VaneNativeMax
	}
	if a.Capabilities.SupportsTilt180() {
		return vaneNativeMax180
	}
	return vaneNativeMax90
}

// CheckObservedProperty compares a property the shade actually reported with
// what its capabilities predict, and reports a DiagnosticPropertyMismatch on
// disagreement. Unknown keys and unknown capabilities are not checked.
//
// Returns false when a mismatch was reported.
func (a Actuator) CheckObservedProperty(key string, observed bool, sink DiagnosticSink) bool {
	if !a.Capabilities.IsKnown() {
		return true
	}

	var expected bool
	switch key {
	case PropertySecondary:
		expected = a.Capabilities.SupportsSecondary() || a.Capabilities.SupportsSecondaryOverlapped()
	case PropertyTiltAnywhere:
		expected = a.Capabilities.SupportsTiltAnywhere()
	default:
		return true
	}
	if expected == observed {
		return true
	}

	report(sink, Diagnostic{
		Kind:         DiagnosticPropertyMismatch,
		ShadeID:      a.ID,
		Type:         a.Type.Code(),
		Capabilities: a.Capabilities.Code(),
		Property:     key,
		Observed:     observed,
	})
	return false
}

// Channels returns the channels the actuator exposes, in display order.
func (a Actuator) Channels() []Channel {
	var out []Channel
	for _, ch := range []Channel{ChannelPosition, ChannelState, ChannelSecondary, ChannelVane} {
		if a.supportsChannel(ch) {
			out = append(out, ch)
		}
	}
	return out
}
