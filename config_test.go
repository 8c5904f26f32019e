package goIdentity

import (
	"testing"
	"time"
)

func TestConfigDefaultsApplied(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.Verification.ResendCooldown != defaultResendCooldown {
		t.Fatalf("expected default resend cooldown, got %v", cfg.Verification.ResendCooldown)
	}
	if cfg.Verification.CodeTTL != defaultCodeTTL {
		t.Fatalf("expected default code ttl, got %v", cfg.Verification.CodeTTL)
	}
	if cfg.Snapshot.Key != defaultSnapshotKey {
		t.Fatalf("expected default snapshot key, got %s", cfg.Snapshot.Key)
	}
	if cfg.Audit.BufferSize != defaultAuditBuffer {
		t.Fatalf("expected default audit buffer, got %d", cfg.Audit.BufferSize)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := defaultConfig()
	cfg.Verification.ResendCooldown = 10 * time.Minute
	cfg.Verification.CodeTTL = time.Minute
	if err := cfg.validate(); err == nil {
		t.Fatal("expected a cooldown longer than the code ttl to be rejected")
	}

	cfg = defaultConfig()
	cfg.Verification.ResendCooldown = -time.Second
	if err := cfg.validate(); err == nil {
		t.Fatal("expected a negative cooldown to be rejected")
	}

	if err := defaultConfig().validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestBuildRequiresBackend(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected Build without a backend to fail")
	}
}

func TestBuilderReusePanics(t *testing.T) {
	builder := New().WithBackend(newFakeBackend())
	if _, err := builder.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected reuse after Build to panic")
		}
	}()
	builder.WithMetricsEnabled(false)
}
