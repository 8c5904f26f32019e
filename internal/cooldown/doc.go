// Package cooldown tracks per-identifier resend windows for verification code
// requests. A Store answers one question: has this identifier requested a code
// inside the fixed window. The in-memory store is process-local; the Redis
// store survives restarts and is shared across sibling processes.
package cooldown
