package goIdentity

import (
	"context"
	"fmt"
)

// Keys the engine injects into an auth-data entry when matching options ask
// for union-id semantics.
const (
	authDataKeyUnionID     = "unionid"
	authDataKeyPlatform    = "platform"
	authDataKeyMainAccount = "main_account"
)

// buildAuthDataEntry copies the caller payload and folds the matching options
// into it. Option combinations that would produce an ambiguous match are
// rejected locally.
func buildAuthDataEntry(payload map[string]any, opts *AuthDataOption) (map[string]any, error) {
	entry := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		entry[k] = v
	}

	if opts == nil {
		return entry, nil
	}
	if opts.IsMainAccount && (opts.Platform == "" || opts.UnionID == "") {
		return nil, fmt.Errorf("%w: main-account flag requires platform and union id", ErrValidationFailed)
	}
	if opts.FailOnNotExist && (opts.Platform == "" || opts.UnionID == "") {
		return nil, fmt.Errorf("%w: fail-on-not-exist requires platform and union id", ErrValidationFailed)
	}

	if opts.UnionID != "" {
		entry[authDataKeyUnionID] = opts.UnionID
		entry[authDataKeyPlatform] = string(opts.Platform)
		if opts.IsMainAccount {
			entry[authDataKeyMainAccount] = true
		}
	}
	return entry, nil
}

// loginWithAuthData logs in (or implicitly signs up) with a third-party
// binding. With FailOnNotExist set, a miss surfaces as ErrAccountNotFound and
// no account is created.
func (e *Engine) loginWithAuthData(ctx context.Context, c AuthData) (*Identity, error) {
	if c.PlatformID == "" {
		return nil, fmt.Errorf("%w: platform id is required", ErrValidationFailed)
	}

	entry, err := buildAuthDataEntry(c.Payload, c.Options)
	if err != nil {
		return nil, err
	}

	strict := c.Options != nil && c.Options.FailOnNotExist
	body := map[string]any{
		"authData": map[string]any{c.PlatformID: entry},
	}
	if strict {
		body["failOnNotExist"] = true
	}

	payload, err := e.backend.Post(ctx, pathUsers, "", body)
	if err != nil {
		if strict && backendCode(err) == codeUserNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, mapBackendError(err)
	}

	identity := identityFromPayload(payload)
	if identity.AuthData == nil {
		identity.AuthData = map[string]map[string]any{}
	}
	if _, ok := identity.AuthData[c.PlatformID]; !ok {
		identity.AuthData[c.PlatformID] = entry
	}
	return identity, nil
}

// AssociateAuthData attaches a third-party binding to the current identity
// without changing which identity is current. A binding already claimed by a
// different account fails with ErrAlreadyAssociatedElsewhere.
func (e *Engine) AssociateAuthData(ctx context.Context, platformID string, payload map[string]any, opts *AuthDataOption) (*Identity, error) {
	if platformID == "" {
		return nil, fmt.Errorf("%w: platform id is required", ErrValidationFailed)
	}

	current, err := e.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := buildAuthDataEntry(payload, opts)
	if err != nil {
		return nil, err
	}

	_, err = e.backend.Put(ctx, pathUsers+"/"+current.ObjectID, current.SessionToken, map[string]any{
		"authData": map[string]any{platformID: entry},
	})
	if err != nil {
		err = mapBackendError(err)
		e.emitAudit(ctx, auditEventAssociateFailure, false, current.ObjectID, err, func() map[string]string {
			return map[string]string{"platform": platformID}
		})
		return nil, err
	}

	if current.AuthData == nil {
		current.AuthData = map[string]map[string]any{}
	}
	current.AuthData[platformID] = entry

	e.setCurrent(ctx, current)
	e.metricInc(MetricAssociate)
	e.emitAudit(ctx, auditEventAssociateSuccess, true, current.ObjectID, nil, func() map[string]string {
		return map[string]string{"platform": platformID}
	})
	return current.clone(), nil
}

// DisassociateAuthData removes a third-party binding from the current
// identity. A platform the identity is not bound to fails locally with
// ErrBindingNotFound.
func (e *Engine) DisassociateAuthData(ctx context.Context, platformID string) (*Identity, error) {
	if platformID == "" {
		return nil, fmt.Errorf("%w: platform id is required", ErrValidationFailed)
	}

	current, err := e.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if _, bound := current.AuthData[platformID]; !bound {
		return nil, ErrBindingNotFound
	}

	_, err = e.backend.Put(ctx, pathUsers+"/"+current.ObjectID, current.SessionToken, map[string]any{
		"authData." + platformID: map[string]any{"__op": "Delete"},
	})
	if err != nil {
		err = mapBackendError(err)
		e.emitAudit(ctx, auditEventDisassociateFailure, false, current.ObjectID, err, func() map[string]string {
			return map[string]string{"platform": platformID}
		})
		return nil, err
	}

	delete(current.AuthData, platformID)

	e.setCurrent(ctx, current)
	e.metricInc(MetricDisassociate)
	e.emitAudit(ctx, auditEventDisassociateSuccess, true, current.ObjectID, nil, func() map[string]string {
		return map[string]string{"platform": platformID}
	})
	return current.clone(), nil
}
