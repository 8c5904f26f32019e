// Package goIdentity provides a client-side identity and session core: it resolves
// heterogeneous credentials (username/password, phone+password, phone+SMS-code,
// email/password, third-party auth data, anonymous, raw session tokens) into a single
// authenticated identity, persists that identity across process restarts, and keeps it
// consistent under concurrent access.
//
// The package is designed for concurrent workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config], the
// [Credential] variants, and value types. The remote identity service is abstracted
// behind the [Backend] interface ([rest.Client] is the HTTP implementation); durable
// current-identity persistence is abstracted behind [snapshot.Store]. All internal
// coordination — cooldown accounting, audit dispatch, metrics — lives under internal/
// and is never exported.
//
// # What this package must NOT do
//
//   - Verify passwords, mint tokens, or evaluate ACLs locally. Uniqueness and
//     credential checks are the backend's job; this core only surfaces its verdicts.
//   - Retry failed remote calls. Retry policy, if any, belongs to the Backend
//     implementation.
//   - Expose Redis clients, snapshot encodings, or transport details in its public API.
//
// # Concurrency contract
//
// The current-identity store is the only mutable shared state; all reads and writes to
// it are serialized, and a completed set is visible to every subsequent get. Anonymous
// provisioning is single-flight: concurrent EnsureCurrentIdentity calls share one
// remote signup. Every other operation is stateless apart from the per-identifier
// verification records.
package goIdentity
