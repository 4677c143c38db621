// Package auth provides authentication and session security for PharmaTrack Core.
//
// It implements a 4-tier role model (admin, manager, pharmacist, assistant) with:
//   - Bcrypt password hashing with a configurable work factor
//   - Brute-force lockout after repeated failed logins (evaluated lazily per account)
//   - Paired JWT access/refresh tokens sharing one session identifier
//   - Single-use refresh token rotation backed by a Redis revocation set
//   - Static role → resource → action permission matrix (fail closed)
//
// Revocation is sparse: a session exists only as the identifier embedded in
// its token pair, and the registry records identifiers that have been revoked,
// expiring entries automatically once no access token from that session could
// still be live. ValidateToken checks signature and expiry only; callers that
// need revocation awareness combine it with IsSessionRevoked.
package auth
