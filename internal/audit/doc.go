// Package audit keeps a trail of shade commands and their outcomes.
//
// Every command the hub bridge handles, whether it arrived on MQTT or through
// the REST API, is stored in the shade_command_audit table with the
// acknowledgement status and error code it produced.
package audit
