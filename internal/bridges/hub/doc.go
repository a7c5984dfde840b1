// Package hub bridges normalized shade commands and state on MQTT to a
// shade hub that drives motors in native axis units.
//
// Message flow:
//
//	graylogic/command/shade/{id}
//	    │
//	    ▼
//	shade.TranslateCommand ──▶ Transport.Send ──▶ graylogic/native/{hub}/{id}/set
//	    │
//	    ▼
//	graylogic/ack/shade/{id}
//
//	graylogic/native/{hub}/{id}/position
//	    │
//	    ▼
//	shade.TranslateRefresh ──▶ state cache ──▶ graylogic/state/shade/{id} (retained)
//	                               │
//	                               ├──▶ history (SQLite)
//	                               └──▶ telemetry (InfluxDB)
//
// Every command gets an acknowledgement. Commands rejected by the translator
// fail with OUT_OF_RANGE, UNSUPPORTED_CHANNEL, UNSUPPORTED_FOR_STATE or
// INVALID_COMMAND; commands that mean nothing on the addressed channel are
// acknowledged as ignored and nothing is sent to the hub.
//
// State messages hold one key per channel the shade supports. An undefined
// position is published as null, never as a number.
package hub
