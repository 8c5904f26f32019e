package goIdentity

import (
	"context"
	"fmt"
	"time"
)

// RequestPasswordReset asks the backend to start a password reset for the
// account owning the identifier. Phone identifiers receive a short message
// code, email identifiers a reset link. The verification cooldown applies.
func (e *Engine) RequestPasswordReset(ctx context.Context, kind VerificationKind, identifier string, opts *ShortMessageOptions) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier is required", ErrValidationFailed)
	}

	remaining, err := e.verification.cooldown.Mark(ctx, identifier, e.config.Verification.ResendCooldown)
	if err != nil {
		return err
	}
	if remaining > 0 {
		e.metricInc(MetricVerificationCooldown)
		return fmt.Errorf("%w: retry in %s", ErrCooldownActive, remaining)
	}

	body := map[string]any{}
	switch kind {
	case KindPhone:
		body["mobilePhoneNumber"] = identifier
		if opts != nil && opts.ValidationToken != "" {
			body["validate_token"] = opts.ValidationToken
		}
	case KindEmail:
		body["email"] = identifier
	default:
		return fmt.Errorf("%w: unknown verification kind %q", ErrValidationFailed, kind)
	}

	if _, err := e.backend.Post(ctx, pathRequestPasswordReset, "", body); err != nil {
		_ = e.verification.cooldown.Clear(ctx, identifier)
		err = mapBackendError(err)
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", err, nil)
		return err
	}

	if kind == KindPhone {
		e.verification.mu.Lock()
		e.verification.requests[identifier] = &verificationRequest{
			kind:        kind,
			purpose:     PurposePasswordReset,
			requestedAt: time.Now(),
		}
		e.verification.mu.Unlock()
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, "", nil, func() map[string]string {
		return map[string]string{"identifier": identifier}
	})
	return nil
}

// ResetPassword completes a phone-driven password reset with the received
// short message code. It does not log the account in; the caller
// authenticates with the new password afterwards.
func (e *Engine) ResetPassword(ctx context.Context, phone, smsCode, newPassword string) error {
	if phone == "" || smsCode == "" || newPassword == "" {
		return fmt.Errorf("%w: phone, code and new password are required", ErrValidationFailed)
	}

	_, err := e.backend.Put(ctx, pathResetPasswordBySMS+"/"+smsCode, "", map[string]any{
		"mobilePhoneNumber": phone,
		"password":          newPassword,
	})
	if err != nil {
		err = mapBackendError(err)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", err, nil)
		return err
	}

	e.consumeVerification(phone)
	e.metricInc(MetricPasswordResetConfirm)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, "", nil, nil)
	return nil
}

// UpdatePassword changes the current identity's password, verifying the old
// one remotely. The backend rotates the session token; the rotated token is
// captured and persisted before the call returns.
func (e *Engine) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrValidationFailed)
	}

	current, err := e.requireCurrent(ctx)
	if err != nil {
		return err
	}

	payload, err := e.backend.Put(ctx, pathUsers+"/"+current.ObjectID+"/updatePassword", current.SessionToken, map[string]any{
		"old_password": oldPassword,
		"new_password": newPassword,
	})
	if err != nil {
		switch backendCode(err) {
		case codeLoginMismatch, codeUserNotFound:
			err = ErrInvalidCredentials
		default:
			err = mapBackendError(err)
		}
		e.emitAudit(ctx, auditEventPasswordUpdate, false, current.ObjectID, err, nil)
		return err
	}

	if token, ok := payload["sessionToken"].(string); ok && token != "" {
		current.SessionToken = token
		e.setCurrent(ctx, current)
	}

	e.metricInc(MetricPasswordUpdate)
	e.emitAudit(ctx, auditEventPasswordUpdate, true, current.ObjectID, nil, nil)
	return nil
}
