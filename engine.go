package goIdentity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MrEthical07/goIdentity/internal/cooldown"
)

// Backend paths driven by the engine. The concrete URL layout is a transport
// detail; Backend implementations may remap them.
const (
	pathLogin                = "/login"
	pathUsers                = "/users"
	pathUsersByPhone         = "/usersByMobilePhone"
	pathMe                   = "/users/me"
	pathRequestSMSCode       = "/requestSmsCode"
	pathVerifySMSCode        = "/verifySmsCode"
	pathRequestEmailVerify   = "/requestEmailVerify"
	pathRequestPasswordReset = "/requestPasswordReset"
	pathResetPasswordBySMS   = "/resetPasswordBySmsCode"
)

// Engine is the identity and session core. Construct it with [Builder.Build];
// after that every method is safe for concurrent use.
type Engine struct {
	config  Config
	backend Backend
	current *currentIdentityStore

	verification *verificationFlow
	anon         anonymousProvisioner

	audit   *auditDispatcher
	metrics *Metrics
	logger  *zap.Logger
}

// verificationFlow holds the ephemeral per-identifier request records plus the
// cooldown store. Records are keyed by identifier alone; the purpose rides on
// the record as a tag.
type verificationFlow struct {
	mu       sync.Mutex
	requests map[string]*verificationRequest
	cooldown cooldown.Store
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// CurrentIdentity returns the cached current identity, loading it from durable
// storage on first access after process start. When anonymous auto-provisioning
// is enabled and no identity exists, one is provisioned on the spot.
func (e *Engine) CurrentIdentity(ctx context.Context) (*Identity, error) {
	current, err := e.current.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	if e.config.Anonymous.AutoProvision {
		return e.EnsureCurrentIdentity(ctx)
	}
	return nil, nil
}

// Logout clears the cached identity and durable snapshot, and invalidates any
// in-flight anonymous provisioning attempt so a later auto-create starts fresh.
func (e *Engine) Logout(ctx context.Context) error {
	e.anon.invalidate()

	err := e.current.Set(ctx, nil, true)
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, err == nil, "", err, nil)
	return err
}

// setCurrent replaces the current identity after a successful authentication.
// Durable persistence is best-effort by contract: its failure is logged and
// counted inside the store but never fails the login that triggered it.
func (e *Engine) setCurrent(ctx context.Context, identity *Identity) {
	_ = e.current.Set(ctx, identity, true)
}

// requireCurrent returns the current identity or ErrNotAuthenticated. The
// identity must carry a session token to count as authenticated.
func (e *Engine) requireCurrent(ctx context.Context) (*Identity, error) {
	current, err := e.current.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil || current.SessionToken == "" {
		return nil, ErrNotAuthenticated
	}
	return current, nil
}
