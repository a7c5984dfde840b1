// Package auth authenticates API clients and authorises what they may do.
//
// Clients are configured with an ID, an Argon2id secret hash and a role.
// A client exchanges its ID and secret for a short-lived HS256 access token
// and presents it as a bearer token on every protected request.
//
// Roles are tiered:
//
//	viewer   -> read shades, state and history
//	operator -> viewer + send shade commands
//	admin    -> operator + read diagnostics and the command audit trail
//
// The role-permission mapping is static. Tokens are validated by signature
// and expiry only, so revoking a client means removing it from the
// configuration and rotating the signing secret.
package auth
