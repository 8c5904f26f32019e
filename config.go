package goIdentity

import (
	"errors"
	"time"
)

// Config defines engine policy. Zero values are filled with defaults at
// [Builder.Build]; instances are treated as immutable afterwards.
type Config struct {
	Verification VerificationConfig
	Anonymous    AnonymousConfig
	Snapshot     SnapshotConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// VerificationConfig holds the fixed verification-code policy windows. Both are
// policy constants, not computed: the resend cooldown bounds how often a code
// may be re-requested for one identifier, the code TTL bounds how long a
// requested code stays valid.
type VerificationConfig struct {
	ResendCooldown time.Duration
	CodeTTL        time.Duration
}

// AnonymousConfig controls anonymous identity provisioning.
type AnonymousConfig struct {
	// AutoProvision enables implicit EnsureCurrentIdentity before operations
	// that need a current identity. When false, anonymous identities are only
	// created by an explicit Anonymous credential or EnsureCurrentIdentity call.
	AutoProvision bool
}

// SnapshotConfig controls durable current-identity persistence.
type SnapshotConfig struct {
	// Key is the well-known storage key the snapshot record lives under.
	Key string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool
}

const (
	defaultResendCooldown = 60 * time.Second
	defaultCodeTTL        = 5 * time.Minute
	defaultSnapshotKey    = "currentIdentity"
	defaultAuditBuffer    = 256
)

func defaultConfig() Config {
	return Config{
		Verification: VerificationConfig{
			ResendCooldown: defaultResendCooldown,
			CodeTTL:        defaultCodeTTL,
		},
		Snapshot: SnapshotConfig{
			Key: defaultSnapshotKey,
		},
		Audit: AuditConfig{
			BufferSize: defaultAuditBuffer,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Verification.ResendCooldown == 0 {
		c.Verification.ResendCooldown = defaultResendCooldown
	}
	if c.Verification.CodeTTL == 0 {
		c.Verification.CodeTTL = defaultCodeTTL
	}
	if c.Snapshot.Key == "" {
		c.Snapshot.Key = defaultSnapshotKey
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = defaultAuditBuffer
	}
}

func (c Config) validate() error {
	if c.Verification.ResendCooldown < 0 {
		return errors.New("verification resend cooldown must not be negative")
	}
	if c.Verification.CodeTTL < 0 {
		return errors.New("verification code ttl must not be negative")
	}
	if c.Verification.CodeTTL > 0 && c.Verification.ResendCooldown > c.Verification.CodeTTL {
		return errors.New("verification resend cooldown must not exceed code ttl")
	}
	return nil
}
