package goIdentity

import (
	"context"
	"sync"
)

// anonymousPlatformID is the auth-data platform key for anonymous identities.
const anonymousPlatformID = "anonymous"

// anonymousProvisioner coalesces concurrent anonymous provisioning into one
// backend signup. generation fences logged-out flights: a flight started
// before a Logout still resolves for its waiters but never becomes current.
type anonymousProvisioner struct {
	mu         sync.Mutex
	deviceID   string
	generation uint64
	pending    *anonymousCall
}

type anonymousCall struct {
	done       chan struct{}
	generation uint64
	identity   *Identity
	err        error
}

func (p *anonymousProvisioner) invalidate() {
	p.mu.Lock()
	p.generation++
	p.mu.Unlock()
}

// EnsureCurrentIdentity returns the current identity, provisioning an
// anonymous one when none exists. Concurrent callers share a single backend
// signup; every caller receives the same identity or the same failure.
func (e *Engine) EnsureCurrentIdentity(ctx context.Context) (*Identity, error) {
	current, err := e.current.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}
	return e.provisionAnonymous(ctx)
}

// provisionAnonymous is the single-flight section. Exactly one caller leads
// the remote signup; everyone else waits on the leader's call record.
func (e *Engine) provisionAnonymous(ctx context.Context) (*Identity, error) {
	e.anon.mu.Lock()
	if call := e.anon.pending; call != nil {
		e.anon.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return call.identity.clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &anonymousCall{
		done:       make(chan struct{}),
		generation: e.anon.generation,
	}
	e.anon.pending = call
	e.anon.mu.Unlock()

	// Leadership re-check: a login may have landed between the caller's
	// current-identity read and winning the pending slot.
	current, err := e.current.Current(ctx)
	if err == nil && current != nil {
		call.identity = current
		e.completeAnonymousFlight(ctx, call, false)
		return current, nil
	}

	identity, err := e.loginAnonymously(ctx)
	call.identity, call.err = identity, err
	e.completeAnonymousFlight(ctx, call, true)
	if err != nil {
		return nil, err
	}
	return identity.clone(), nil
}

// completeAnonymousFlight publishes the flight result and wakes the waiters.
// The store write happens while the pending slot is still held, so no fresh
// caller can observe "no current identity and no pending flight" in between.
// A flight invalidated by Logout resolves for its waiters without becoming
// current.
func (e *Engine) completeAnonymousFlight(ctx context.Context, call *anonymousCall, publish bool) {
	e.anon.mu.Lock()
	if publish && call.err == nil && call.generation == e.anon.generation {
		e.setCurrent(ctx, call.identity)
		e.metricInc(MetricAnonymousProvision)
		e.emitAudit(ctx, auditEventAnonymousProvision, true, call.identity.ObjectID, nil, nil)
	}
	if e.anon.pending == call {
		e.anon.pending = nil
	}
	e.anon.mu.Unlock()
	close(call.done)
}

// loginAnonymously signs up (or resumes, for a device id the backend has seen)
// an anonymous identity.
func (e *Engine) loginAnonymously(ctx context.Context) (*Identity, error) {
	payload, err := e.backend.Post(ctx, pathUsers, "", map[string]any{
		"authData": map[string]any{
			anonymousPlatformID: map[string]any{"id": e.anon.deviceID},
		},
	})
	if err != nil {
		return nil, mapBackendError(err)
	}

	identity := identityFromPayload(payload)
	if identity.AuthData == nil {
		identity.AuthData = map[string]map[string]any{
			anonymousPlatformID: {"id": e.anon.deviceID},
		}
	}
	return identity, nil
}
