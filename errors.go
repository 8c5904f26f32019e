package goIdentity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects an
	// identifier+secret pair (bad password or unknown identifier).
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidVerificationCode is returned when a verification code does not
	// match, or when no prior verification request exists for the identifier.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	// ErrCodeExpired is returned when the validity window of a requested
	// verification code has elapsed.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCooldownActive is returned when a verification code is re-requested
	// inside the resend cooldown window. Detected locally, before any remote call.
	ErrCooldownActive = errors.New("verification cooldown active")
	// ErrSessionExpired is returned when a session token is invalid or expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotAuthenticated is returned by operations that require a current
	// identity when none is cached.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrDuplicateUsername is returned when registration is rejected because the
	// username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrAccountNotFound is returned by strict auth-data login (failOnNotExist)
	// when no identity carries a matching binding.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAlreadyAssociatedElsewhere is returned when an auth-data binding already
	// belongs to a different identity.
	ErrAlreadyAssociatedElsewhere = errors.New("auth data already associated with another identity")
	// ErrBindingNotFound is returned when disassociating a platform that has no
	// binding on the current identity.
	ErrBindingNotFound = errors.New("auth data binding not found")
	// ErrValidationFailed is returned for malformed or incomplete requests,
	// locally (bad option combinations) or from backend rejection.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNetwork is returned for transport-level failures reaching the backend.
	ErrNetwork = errors.New("network error")
	// ErrUnknown matches any backend rejection whose code has no taxonomy
	// mapping; the concrete error is a *BackendError carrying the raw code.
	ErrUnknown = errors.New("unknown backend error")
	// ErrEngineNotReady is returned when the engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// BackendError is a structured rejection from the remote identity service.
// Backend implementations return it for every non-transport failure; the engine
// translates well-known codes into the sentinel taxonomy above and surfaces the
// rest as-is. errors.Is(err, ErrUnknown) reports true for unmapped codes.
type BackendError struct {
	Code    int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// Is makes an unmapped *BackendError satisfy errors.Is(err, ErrUnknown).
func (e *BackendError) Is(target error) bool {
	return target == ErrUnknown
}

// Backend rejection codes with a taxonomy mapping. The wire values mirror the
// remote identity service's error table; anything else passes through as
// *BackendError.
const (
	codeValidationFailed = 142
	codeUsernameTaken    = 202
	codeEmailTaken       = 203
	codeSessionMissing   = 206
	codeLoginMismatch    = 210
	codeUserNotFound     = 211
	codePhoneNotFound    = 213
	codePhoneTaken       = 214
	codeBindingTaken     = 137
	codeCodeInvalid      = 603
	codeCodeExpired      = 605
)

// mapBackendError translates a backend rejection into the sentinel taxonomy.
// Transport failures (ErrNetwork wraps) and nil pass through unchanged. Flows
// that need a contextual reading of a code (become treating user-not-found as
// session expiry, strict auth-data login treating it as account-not-found)
// handle those codes before falling back here.
func mapBackendError(err error) error {
	if err == nil {
		return nil
	}

	var be *BackendError
	if !errors.As(err, &be) {
		return err
	}

	switch be.Code {
	case codeUsernameTaken:
		return ErrDuplicateUsername
	case codeEmailTaken, codePhoneTaken, codeValidationFailed:
		return ErrValidationFailed
	case codeSessionMissing:
		return ErrNotAuthenticated
	case codeLoginMismatch, codeUserNotFound, codePhoneNotFound:
		return ErrInvalidCredentials
	case codeBindingTaken:
		return ErrAlreadyAssociatedElsewhere
	case codeCodeInvalid:
		return ErrInvalidVerificationCode
	case codeCodeExpired:
		return ErrCodeExpired
	default:
		return be
	}
}

// backendCode extracts the raw rejection code, or -1 for non-backend errors.
func backendCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Code
	}
	return -1
}
