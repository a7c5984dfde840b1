package shade

import "fmt"

// requestUpdate is appended to every diagnostic message.
const requestUpdate = " => Please request developers to update the database!"

// DiagnosticKind classifies a registry gap.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagnosticTypeUnknown        DiagnosticKind = "type_unknown"
	DiagnosticCapabilityUnknown  DiagnosticKind = "capability_unknown"
	DiagnosticCapabilityMismatch DiagnosticKind = "capability_mismatch"
	DiagnosticPropertyMismatch   DiagnosticKind = "property_mismatch"
)

// Diagnostic is a structured warning about a shade whose reported codes or
// properties are missing from, or disagree with, the database.
//
// Diagnostic implements error so sinks can use errors.Is; the unknown kinds
// unwrap to ErrUnknownRegistryEntry.
type Diagnostic struct {
	Kind         DiagnosticKind
	ShadeID      string
	Type         int
	Capabilities int

	// Property and Observed are set for DiagnosticPropertyMismatch only.
	Property string
	Observed bool
}

// Error returns the operator-facing warning text.
func (d Diagnostic) Error() string {
	switch d.Kind {
	case DiagnosticTypeUnknown:
		return fmt.Sprintf("the shade 'type:%d' is not in the database!%s", d.Type, requestUpdate)
	case DiagnosticCapabilityUnknown:
		return fmt.Sprintf("the 'capabilities:%d' for shade 'type:%d' are not in the database!%s",
			d.Capabilities, d.Type, requestUpdate)
	case DiagnosticCapabilityMismatch:
		return fmt.Sprintf("the 'capabilities:%d' reported by shade 'type:%d' don't match the database!%s",
			d.Capabilities, d.Type, requestUpdate)
	case DiagnosticPropertyMismatch:
		return fmt.Sprintf("the '%s:%t' property actually reported by shade 'type:%d' is different "+
			"than expected from its 'capabilities:%d' in the database!%s",
			d.Property, d.Observed, d.Type, d.Capabilities, requestUpdate)
	default:
		return fmt.Sprintf("shade diagnostic %q for 'type:%d'", d.Kind, d.Type)
	}
}

// Unwrap returns ErrUnknownRegistryEntry for the unknown kinds.
func (d Diagnostic) Unwrap() error {
	if d.Kind == DiagnosticTypeUnknown || d.Kind == DiagnosticCapabilityUnknown {
		return ErrUnknownRegistryEntry
	}
	return nil
}

// DiagnosticSink receives registry gap notifications.
// Reporting never aborts translation.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// DiagnosticSinkFunc adapts a function to DiagnosticSink.
type DiagnosticSinkFunc func(d Diagnostic)

// Report calls f(d).
func (f DiagnosticSinkFunc) Report(d Diagnostic) { f(d) }

// Logger is the logging interface used by LogSink.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// LogSink reports diagnostics as warnings.
type LogSink struct {
	Logger Logger
}

// Report logs the diagnostic at warn level.
func (s LogSink) Report(d Diagnostic) {
	if s.Logger == nil {
		return
	}
	args := []any{
		"kind", string(d.Kind),
		"type", d.Type,
		"capabilities", d.Capabilities,
	}
	if d.ShadeID != "" {
		args = append(args, "shade_id", d.ShadeID)
	}
	if d.Kind == DiagnosticPropertyMismatch {
		args = append(args, "property", d.Property, "observed", d.Observed)
	}
	s.Logger.Warn(d.Error(), args...)
}

// report sends d to sink when sink is set.
func report(sink DiagnosticSink, d Diagnostic) {
	if sink != nil {
		sink.Report(d)
	}
}
