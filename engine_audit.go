package goIdentity

import (
	"context"
	"time"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventSignupSuccess        = "signup_success"
	auditEventSignupFailure        = "signup_failure"
	auditEventBecomeSuccess        = "become_success"
	auditEventBecomeFailure        = "become_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventLogout               = "logout"
	auditEventAnonymousProvision   = "anonymous_provision"
	auditEventAssociateSuccess     = "auth_data_associate_success"
	auditEventAssociateFailure     = "auth_data_associate_failure"
	auditEventDisassociateSuccess  = "auth_data_disassociate_success"
	auditEventDisassociateFailure  = "auth_data_disassociate_failure"
	auditEventVerificationRequest  = "verification_request"
	auditEventVerificationConfirm  = "verification_confirm"
	auditEventVerificationCooldown = "verification_cooldown_rejected"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventPasswordUpdate       = "password_update"
)

// emitAudit builds and dispatches one audit event. metadataFn is only invoked
// when a dispatcher is active, so hot paths pay nothing when auditing is off.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identityID string,
	opErr error,
	metadataFn func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:  time.Now(),
		EventType:  eventType,
		IdentityID: identityID,
		IP:         ClientIPFromContext(ctx),
		Success:    success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadataFn != nil {
		event.Metadata = metadataFn()
	}

	e.audit.Emit(event)
}
