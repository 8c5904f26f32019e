// Package audit defines the audit event model and the built-in sinks. Events
// are emitted by the engine's asynchronous dispatcher; sinks decide where they
// go. Session tokens never appear in events.
package audit
