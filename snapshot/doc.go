// Package snapshot persists the current-identity record across process
// restarts. A Store holds at most one Snapshot per key; absence of a record
// means "no current identity". The engine serializes all access, so Store
// implementations only need to be safe for the occasional concurrent call,
// not transactional.
package snapshot
