package goIdentity

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate resolves a credential to an identity, replaces the current
// identity with it, and persists the durable snapshot. The returned value is
// the caller's copy; snapshot persistence failure never fails the login.
func (e *Engine) Authenticate(ctx context.Context, credential Credential) (*Identity, error) {
	if credential == nil {
		return nil, fmt.Errorf("%w: nil credential", ErrValidationFailed)
	}

	var (
		identity *Identity
		err      error
	)
	switch c := credential.(type) {
	case UsernamePassword:
		identity, err = e.loginWithFields(ctx, map[string]any{
			"username": c.Username,
			"password": c.Password,
		})
	case PhonePassword:
		identity, err = e.loginWithFields(ctx, map[string]any{
			"mobilePhoneNumber": c.Phone,
			"password":          c.Password,
		})
	case EmailPassword:
		identity, err = e.loginWithFields(ctx, map[string]any{
			"email":    c.Email,
			"password": c.Password,
		})
	case PhoneSMSCode:
		identity, err = e.loginWithSMSCode(ctx, c.Phone, c.Code)
	case SessionToken:
		// become carries its own audit and metrics taxonomy.
		identity, err = e.become(ctx, c.Token)
		if err != nil {
			return nil, err
		}
		e.setCurrent(ctx, identity)
		return identity.clone(), nil
	case AuthData:
		identity, err = e.loginWithAuthData(ctx, c)
	case Anonymous:
		// Anonymous provisioning runs through the single-flight provisioner
		// and carries its own audit and metrics taxonomy.
		return e.EnsureCurrentIdentity(ctx)
	default:
		return nil, fmt.Errorf("%w: unsupported credential %q", ErrValidationFailed, credential.credentialKind())
	}

	kind := credential.credentialKind()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
			return map[string]string{"credential": kind}
		})
		return nil, err
	}

	e.setCurrent(ctx, identity)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ObjectID, nil, func() map[string]string {
		return map[string]string{"credential": kind}
	})
	return identity.clone(), nil
}

// loginWithFields runs a password-style login. The backend distinguishes
// unknown accounts from wrong passwords by code; both collapse to
// ErrInvalidCredentials so callers cannot probe which accounts exist.
func (e *Engine) loginWithFields(ctx context.Context, body map[string]any) (*Identity, error) {
	payload, err := e.backend.Post(ctx, pathLogin, "", body)
	if err != nil {
		switch backendCode(err) {
		case codeLoginMismatch, codeUserNotFound, codePhoneNotFound:
			return nil, ErrInvalidCredentials
		}
		return nil, mapBackendError(err)
	}
	return identityFromPayload(payload), nil
}

// loginWithSMSCode requires a live login-purpose code request for the phone
// number; without one the attempt fails locally before any remote call.
func (e *Engine) loginWithSMSCode(ctx context.Context, phone, code string) (*Identity, error) {
	if err := e.checkVerificationRequested(phone, PurposeLogin); err != nil {
		return nil, err
	}

	payload, err := e.backend.Post(ctx, pathLogin, "", map[string]any{
		"mobilePhoneNumber": phone,
		"smsCode":           code,
	})
	if err != nil {
		switch backendCode(err) {
		case codeUserNotFound, codePhoneNotFound:
			return nil, ErrInvalidCredentials
		}
		return nil, mapBackendError(err)
	}

	e.consumeVerification(phone)
	return identityFromPayload(payload), nil
}

// Register creates a new account with a username and password and makes it the
// current identity. attrs carries additional object attributes to store on the
// new account; reserved field names are rejected.
func (e *Engine) Register(ctx context.Context, username, password string, attrs map[string]any) (*Identity, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidationFailed)
	}

	body := map[string]any{
		"username": username,
		"password": password,
	}
	if err := mergeAttributes(body, attrs); err != nil {
		return nil, err
	}

	payload, err := e.backend.Post(ctx, pathUsers, "", body)
	if err != nil {
		err = mapBackendError(err)
		if errors.Is(err, ErrDuplicateUsername) {
			e.metricInc(MetricSignupDuplicate)
		}
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, func() map[string]string {
			return map[string]string{"username": username}
		})
		return nil, err
	}

	identity := identityFromPayload(payload)
	identity.IsNew = true
	if identity.Username == "" {
		identity.Username = username
	}

	e.setCurrent(ctx, identity)
	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, identity.ObjectID, nil, nil)
	return identity.clone(), nil
}

// RegisterOrAuthenticate signs up or logs in with a phone number and an SMS
// code, in one idempotent operation: an existing account logs in, a missing
// one is created with the phone already verified. password is optional and
// only applies on creation.
func (e *Engine) RegisterOrAuthenticate(ctx context.Context, phone, smsCode, password string) (*Identity, error) {
	if phone == "" || smsCode == "" {
		return nil, fmt.Errorf("%w: phone and code are required", ErrValidationFailed)
	}

	body := map[string]any{
		"mobilePhoneNumber": phone,
		"smsCode":           smsCode,
	}
	if password != "" {
		body["password"] = password
	}

	payload, err := e.backend.Post(ctx, pathUsersByPhone, "", body)
	if err != nil {
		err = mapBackendError(err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
			return map[string]string{"credential": "phone_sms_code", "phone": phone}
		})
		return nil, err
	}

	identity := identityFromPayload(payload)
	if identity.IsNew {
		identity.PhoneVerified = true
	}

	e.consumeVerification(phone)
	e.setCurrent(ctx, identity)
	if identity.IsNew {
		e.metricInc(MetricSignupSuccess)
		e.emitAudit(ctx, auditEventSignupSuccess, true, identity.ObjectID, nil, nil)
	} else {
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ObjectID, nil, nil)
	}
	return identity.clone(), nil
}

// mergeAttributes copies caller attributes into a request body, refusing any
// key that collides with a reserved identity field.
func mergeAttributes(body map[string]any, attrs map[string]any) error {
	for k, v := range attrs {
		if _, reserved := reservedIdentityFields[k]; reserved {
			return fmt.Errorf("%w: attribute %q collides with a reserved field", ErrValidationFailed, k)
		}
		body[k] = v
	}
	return nil
}
