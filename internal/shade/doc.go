// Package shade implements the window covering capability and position
// translation engine for Gray Logic.
//
// It classifies the type and capabilities codes a shade declares into a
// capability profile, and translates between normalized 0-100% positions and
// the native integer scales a hub or motor controller expects.
//
// # Architecture
//
//	              ┌──────────────────────┐
//	  codes ─────►│ Capability Registry  │  (static tables, built in init)
//	              └──────────┬───────────┘
//	                         │ Capabilities
//	         ┌───────────────┴───────────────┐
//	         ▼                               ▼
//	┌──────────────────┐             ┌──────────────────┐
//	│ TranslateCommand │  Position   │ TranslateRefresh │
//	│ percent ► native │◄───────────►│ native ► percent │
//	└──────────────────┘             └──────────────────┘
//
// # Positions
//
// 0% is fully open (up) and 100% fully closed (down). The primary axis may be
// inverted by the capabilities (top down shades) and by the installation;
// both flags combine by XOR. Vane and secondary axes are never inverted.
//
// Conversions round half up, so a position that is already snapped to a
// native value round-trips unchanged:
//
//	pos, _ := shade.FromPercent(75)
//	pos.Native(90, false)  // 68
//	pos.Native(180, false) // 135
//
// # Registry gaps
//
// Unknown type or capabilities codes never fail translation. They resolve to
// a sentinel profile that supports nothing, and a Diagnostic is handed to the
// configured DiagnosticSink so the database can be extended.
//
// # Thread Safety
//
// All functions are pure. The registry maps are read-only after init and safe
// for concurrent use.
package shade
