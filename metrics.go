package goIdentity

import (
	"sync/atomic"
)

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful authentications of any credential kind.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected authentications.
	MetricLoginFailure
	// MetricSignupSuccess counts successful registrations (explicit or implicit).
	MetricSignupSuccess
	// MetricSignupDuplicate counts registrations rejected for a taken username.
	MetricSignupDuplicate
	// MetricBecomeSuccess counts successful session-token logins.
	MetricBecomeSuccess
	// MetricBecomeFailure counts rejected session-token logins.
	MetricBecomeFailure
	// MetricRefreshSuccess counts successful session token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed session token rotations.
	MetricRefreshFailure
	// MetricLogout counts logouts.
	MetricLogout
	// MetricAnonymousProvision counts anonymous signups actually issued.
	MetricAnonymousProvision
	// MetricVerificationRequest counts verification code requests sent.
	MetricVerificationRequest
	// MetricVerificationCooldown counts requests rejected by the resend cooldown.
	MetricVerificationCooldown
	// MetricVerificationConfirm counts successfully validated codes.
	MetricVerificationConfirm
	// MetricVerificationFailure counts rejected or expired codes.
	MetricVerificationFailure
	// MetricAssociate counts successful auth-data associations.
	MetricAssociate
	// MetricDisassociate counts successful auth-data disassociations.
	MetricDisassociate
	// MetricPasswordResetRequest counts password reset requests.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirm counts completed password resets.
	MetricPasswordResetConfirm
	// MetricPasswordUpdate counts in-session password changes.
	MetricPasswordUpdate
	// MetricSnapshotWriteFailure counts failed durable snapshot writes (the
	// in-memory identity stays authoritative when this rises).
	MetricSnapshotWriteFailure

	metricIDCount
)

// Metrics holds atomic counters. All operations are no-ops when disabled.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot deep-copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	if m == nil || !m.enabled {
		return snap
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
