package goIdentity

import "context"

// IdentityCallback receives the result of an asynchronous identity operation.
// Exactly one of identity and err is non-nil. Callbacks run on a fresh
// goroutine; callers marshal onto their own loop if they need one.
type IdentityCallback func(identity *Identity, err error)

// ErrorCallback receives the result of an asynchronous operation with no
// return value.
type ErrorCallback func(err error)

// TokenCallback receives the result of an asynchronous token operation.
type TokenCallback func(token string, err error)

// AuthenticateAsync runs Authenticate on a new goroutine and delivers the
// result to cb.
func (e *Engine) AuthenticateAsync(ctx context.Context, credential Credential, cb IdentityCallback) {
	go func() {
		cb(e.Authenticate(ctx, credential))
	}()
}

// RegisterOrAuthenticateAsync runs RegisterOrAuthenticate on a new goroutine
// and delivers the result to cb.
func (e *Engine) RegisterOrAuthenticateAsync(ctx context.Context, phone, smsCode, password string, cb IdentityCallback) {
	go func() {
		cb(e.RegisterOrAuthenticate(ctx, phone, smsCode, password))
	}()
}

// EnsureCurrentIdentityAsync runs EnsureCurrentIdentity on a new goroutine and
// delivers the result to cb.
func (e *Engine) EnsureCurrentIdentityAsync(ctx context.Context, cb IdentityCallback) {
	go func() {
		cb(e.EnsureCurrentIdentity(ctx))
	}()
}

// RefreshSessionTokenAsync runs RefreshSessionToken on a new goroutine and
// delivers the result to cb.
func (e *Engine) RefreshSessionTokenAsync(ctx context.Context, cb TokenCallback) {
	go func() {
		cb(e.RefreshSessionToken(ctx))
	}()
}

// RequestVerificationCodeAsync runs RequestVerificationCode on a new goroutine
// and delivers the result to cb.
func (e *Engine) RequestVerificationCodeAsync(ctx context.Context, kind VerificationKind, identifier string, purpose VerificationPurpose, opts *ShortMessageOptions, cb ErrorCallback) {
	go func() {
		cb(e.RequestVerificationCode(ctx, kind, identifier, purpose, opts))
	}()
}
