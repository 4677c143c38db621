// Package audit provides access to the audit_logs table, the tamper
// trail for regulated pharmacy activity.
//
// Every security-relevant event (logins, lockouts, token refreshes,
// password changes) and every future dispensing or inventory mutation
// lands in the same table, written through Repository.Create and read
// back through Repository.List with filtering and pagination.
//
// Writers must treat audit failures as non-fatal: a broken trail is
// logged, never allowed to abort the operation that produced it.
package audit
