package goIdentity

import (
	"context"
	"fmt"
	"time"
)

// verificationRequest records that a code was requested for an identifier. The
// record is the local precondition for code-driven flows; the code itself
// never exists client-side.
type verificationRequest struct {
	kind        VerificationKind
	purpose     VerificationPurpose
	requestedAt time.Time
}

// RequestVerificationCode asks the backend to deliver a verification code to
// the identifier over the given channel. Repeat requests inside the cooldown
// window fail with ErrCooldownActive without touching the backend.
func (e *Engine) RequestVerificationCode(ctx context.Context, kind VerificationKind, identifier string, purpose VerificationPurpose, opts *ShortMessageOptions) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier is required", ErrValidationFailed)
	}

	remaining, err := e.verification.cooldown.Mark(ctx, identifier, e.config.Verification.ResendCooldown)
	if err != nil {
		return err
	}
	if remaining > 0 {
		e.metricInc(MetricVerificationCooldown)
		e.emitAudit(ctx, auditEventVerificationCooldown, false, "", ErrCooldownActive, func() map[string]string {
			return map[string]string{"identifier": identifier, "remaining": remaining.String()}
		})
		return fmt.Errorf("%w: retry in %s", ErrCooldownActive, remaining.Round(time.Second))
	}

	if err := e.deliverCode(ctx, kind, identifier, purpose, opts); err != nil {
		// The mark is released so the caller can retry immediately after a
		// backend failure instead of waiting out a window nothing was sent in.
		_ = e.verification.cooldown.Clear(ctx, identifier)
		err = mapBackendError(err)
		e.emitAudit(ctx, auditEventVerificationRequest, false, "", err, func() map[string]string {
			return map[string]string{"identifier": identifier, "purpose": string(purpose)}
		})
		return err
	}

	e.verification.mu.Lock()
	e.verification.requests[identifier] = &verificationRequest{
		kind:        kind,
		purpose:     purpose,
		requestedAt: time.Now(),
	}
	e.verification.mu.Unlock()

	e.metricInc(MetricVerificationRequest)
	e.emitAudit(ctx, auditEventVerificationRequest, true, "", nil, func() map[string]string {
		return map[string]string{"identifier": identifier, "purpose": string(purpose)}
	})
	return nil
}

func (e *Engine) deliverCode(ctx context.Context, kind VerificationKind, identifier string, purpose VerificationPurpose, opts *ShortMessageOptions) error {
	switch kind {
	case KindPhone:
		body := map[string]any{
			"mobilePhoneNumber": identifier,
			"purpose":           string(purpose),
		}
		if opts != nil && opts.ValidationToken != "" {
			body["validate_token"] = opts.ValidationToken
		}
		_, err := e.backend.Post(ctx, pathRequestSMSCode, "", body)
		return err
	case KindEmail:
		_, err := e.backend.Post(ctx, pathRequestEmailVerify, "", map[string]any{
			"email":   identifier,
			"purpose": string(purpose),
		})
		return err
	default:
		return fmt.Errorf("%w: unknown verification kind %q", ErrValidationFailed, kind)
	}
}

// RequestLoginCode requests a short message code for SMS-code login.
func (e *Engine) RequestLoginCode(ctx context.Context, phone string, opts *ShortMessageOptions) error {
	return e.RequestVerificationCode(ctx, KindPhone, phone, PurposeLogin, opts)
}

// RequestMobilePhoneVerify requests a short message code for verifying
// ownership of a phone number.
func (e *Engine) RequestMobilePhoneVerify(ctx context.Context, phone string, opts *ShortMessageOptions) error {
	return e.RequestVerificationCode(ctx, KindPhone, phone, PurposeVerify, opts)
}

// RequestEmailVerify requests an ownership verification email.
func (e *Engine) RequestEmailVerify(ctx context.Context, email string) error {
	return e.RequestVerificationCode(ctx, KindEmail, email, PurposeVerify, nil)
}

// ValidateVerificationCode confirms a code the identifier's owner received.
// The local request record is consumed on success; when the current identity
// owns the identifier, its verified flag flips and the snapshot is rewritten.
func (e *Engine) ValidateVerificationCode(ctx context.Context, identifier, code string) error {
	req, err := e.liveVerification(identifier)
	if err != nil {
		return err
	}
	if req.kind == KindEmail {
		// Email verification completes through the emailed link; there is no
		// client-side code to validate.
		return fmt.Errorf("%w: email verification has no client-side code", ErrValidationFailed)
	}

	_, err = e.backend.Post(ctx, pathVerifySMSCode+"/"+code, "", map[string]any{
		"mobilePhoneNumber": identifier,
	})
	if err != nil {
		err = mapBackendError(err)
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, "", err, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return err
	}

	e.consumeVerification(identifier)
	e.markIdentifierVerified(ctx, req.kind, identifier)

	e.metricInc(MetricVerificationConfirm)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, "", nil, func() map[string]string {
		return map[string]string{"identifier": identifier}
	})
	return nil
}

// liveVerification returns the unexpired request record for an identifier.
// A missing record reads as an invalid code; an expired one is purged and
// reported as expired.
func (e *Engine) liveVerification(identifier string) (*verificationRequest, error) {
	e.verification.mu.Lock()
	defer e.verification.mu.Unlock()

	req, ok := e.verification.requests[identifier]
	if !ok {
		return nil, ErrInvalidVerificationCode
	}
	if time.Since(req.requestedAt) > e.config.Verification.CodeTTL {
		delete(e.verification.requests, identifier)
		return nil, ErrCodeExpired
	}
	return req, nil
}

// checkVerificationRequested verifies that a live request record exists for
// the identifier with the given purpose.
func (e *Engine) checkVerificationRequested(identifier string, purpose VerificationPurpose) error {
	req, err := e.liveVerification(identifier)
	if err != nil {
		return err
	}
	if req.purpose != purpose {
		return ErrInvalidVerificationCode
	}
	return nil
}

// consumeVerification drops the request record once its code has been spent.
func (e *Engine) consumeVerification(identifier string) {
	e.verification.mu.Lock()
	delete(e.verification.requests, identifier)
	e.verification.mu.Unlock()
}

// markIdentifierVerified flips the verified flag on the current identity when
// it owns the identifier that was just confirmed.
func (e *Engine) markIdentifierVerified(ctx context.Context, kind VerificationKind, identifier string) {
	current, err := e.current.Current(ctx)
	if err != nil || current == nil {
		return
	}

	switch {
	case kind == KindPhone && current.Phone == identifier:
		current.PhoneVerified = true
	case kind == KindEmail && current.Email == identifier:
		current.EmailVerified = true
	default:
		return
	}
	e.setCurrent(ctx, current)
}
