// Package redis provides Redis connectivity for PharmaTrack Core.
//
// The Redis instance backs the session revocation registry: logged-out
// and rotated session identifiers are stored here with a TTL so the
// entries clean themselves up once the tokens they guard have expired.
//
// This package manages:
//   - Connection establishment with a verification ping
//   - Health checks for readiness probes
//   - Graceful shutdown
//
// The raw client is exposed through Universal for the auth package's
// session registry; all other subsystems should go through that.
package redis
