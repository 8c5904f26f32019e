package goIdentity

import (
	"context"
	"fmt"
)

// become resolves a raw session token to the identity it was issued for. An
// unknown or revoked token reads as an expired session.
func (e *Engine) become(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: session token is required", ErrValidationFailed)
	}

	payload, err := e.backend.Get(ctx, pathMe, token, nil)
	if err != nil {
		switch backendCode(err) {
		case codeUserNotFound, codeSessionMissing:
			err = ErrSessionExpired
		default:
			err = mapBackendError(err)
		}
		e.metricInc(MetricBecomeFailure)
		e.emitAudit(ctx, auditEventBecomeFailure, false, "", err, nil)
		return nil, err
	}

	identity := identityFromPayload(payload)
	if identity.SessionToken == "" {
		identity.SessionToken = token
	}

	e.metricInc(MetricBecomeSuccess)
	e.emitAudit(ctx, auditEventBecomeSuccess, true, identity.ObjectID, nil, nil)
	return identity, nil
}

// RefreshSessionToken rotates the current identity's session token. The new
// token is cached and persisted before it is returned, so a crash right after
// the call never strands a snapshot holding the revoked token.
func (e *Engine) RefreshSessionToken(ctx context.Context) (string, error) {
	current, err := e.requireCurrent(ctx)
	if err != nil {
		return "", err
	}

	payload, err := e.backend.Put(ctx, pathUsers+"/"+current.ObjectID+"/refreshSessionToken", current.SessionToken, nil)
	if err != nil {
		err = mapBackendError(err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, current.ObjectID, err, nil)
		return "", err
	}

	token, _ := payload["sessionToken"].(string)
	if token == "" {
		err = fmt.Errorf("%w: refresh response carried no session token", ErrUnknown)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, current.ObjectID, err, nil)
		return "", err
	}

	current.SessionToken = token
	e.setCurrent(ctx, current)

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, current.ObjectID, nil, nil)
	return token, nil
}

// IsAuthenticated checks a session token against the backend without touching
// the current identity. An expired or unknown token reports false, nil; only
// transport-level failures surface as errors.
func (e *Engine) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	_, err := e.backend.Get(ctx, pathMe, token, nil)
	if err != nil {
		switch backendCode(err) {
		case codeUserNotFound, codeSessionMissing:
			return false, nil
		}
		return false, mapBackendError(err)
	}
	return true, nil
}

// Roles lists the roles the current identity belongs to.
func (e *Engine) Roles(ctx context.Context) ([]Role, error) {
	current, err := e.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := e.backend.Get(ctx, pathUsers+"/"+current.ObjectID+"/roles", current.SessionToken, nil)
	if err != nil {
		return nil, mapBackendError(err)
	}

	raw, _ := payload["results"].([]any)
	roles := make([]Role, 0, len(raw))
	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := fields["name"].(string); name != "" {
			roles = append(roles, Role{Name: name})
		}
	}
	return roles, nil
}
