package goIdentity

import (
	"context"
)

// Platform names a third-party identity provider. The set is open: the three
// constants below are well-known values, any other non-empty string works.
type Platform string

const (
	// PlatformWeibo is the well-known platform key for Weibo bindings.
	PlatformWeibo Platform = "weibo"
	// PlatformQQ is the well-known platform key for QQ bindings.
	PlatformQQ Platform = "qq"
	// PlatformWeixin is the well-known platform key for Weixin (WeChat) bindings.
	PlatformWeixin Platform = "weixin"
)

// Credential is a proof-of-identity input to an authentication attempt. It is a
// closed tagged union: exactly the variant types in this file implement it, and
// each variant is immutable once constructed.
type Credential interface {
	credentialKind() string
}

// UsernamePassword authenticates with a username and password.
type UsernamePassword struct {
	Username string
	Password string
}

// PhonePassword authenticates with a mobile phone number and password.
type PhonePassword struct {
	Phone    string
	Password string
}

// PhoneSMSCode authenticates with a mobile phone number and a short message
// code previously requested through [Engine.RequestLoginCode].
type PhoneSMSCode struct {
	Phone string
	Code  string
}

// EmailPassword authenticates with an email address and password.
type EmailPassword struct {
	Email    string
	Password string
}

// SessionToken authenticates with a raw session token ("become"): the backend
// resolves the token to the identity it was issued for.
type SessionToken struct {
	Token string
}

// AuthData authenticates with third-party auth data. Payload is the
// platform-defined key/value bag (e.g. {"uid": ..., "access_token": ...});
// its shape is deliberately untyped. Options tunes the matching policy.
type AuthData struct {
	PlatformID string
	Payload    map[string]any
	Options    *AuthDataOption
}

// Anonymous provisions (or resumes) an anonymous identity.
type Anonymous struct{}

func (UsernamePassword) credentialKind() string { return "username_password" }
func (PhonePassword) credentialKind() string    { return "phone_password" }
func (PhoneSMSCode) credentialKind() string     { return "phone_sms_code" }
func (EmailPassword) credentialKind() string    { return "email_password" }
func (SessionToken) credentialKind() string     { return "session_token" }
func (AuthData) credentialKind() string         { return "auth_data" }
func (Anonymous) credentialKind() string        { return "anonymous" }

// AuthDataOption tunes auth-data matching.
//
// IsMainAccount marks the resulting binding as the main account for the
// (Platform, UnionID) pair: when multiple identities match a platform binding,
// the one flagged main wins. It requires both Platform and UnionID.
//
// FailOnNotExist requests strict login-only semantics: when no identity carries
// a matching binding the operation fails with [ErrAccountNotFound] instead of
// implicitly signing up. It likewise requires Platform and UnionID; supplying it
// without them fails with [ErrValidationFailed] before any remote call.
type AuthDataOption struct {
	Platform       Platform
	UnionID        string
	IsMainAccount  bool
	FailOnNotExist bool
}

// VerificationPurpose tags why a verification code was requested.
type VerificationPurpose string

const (
	// PurposeSignup tags codes requested for account creation.
	PurposeSignup VerificationPurpose = "signup"
	// PurposeLogin tags codes requested for SMS-code login.
	PurposeLogin VerificationPurpose = "login"
	// PurposePasswordReset tags codes requested for password reset.
	PurposePasswordReset VerificationPurpose = "password-reset"
	// PurposeVerify tags codes requested for explicit phone/email verification.
	PurposeVerify VerificationPurpose = "generic-verify"
)

// VerificationKind selects the delivery channel for a verification code.
type VerificationKind string

const (
	// KindPhone delivers codes by short message.
	KindPhone VerificationKind = "phone"
	// KindEmail delivers codes (or links) by email.
	KindEmail VerificationKind = "email"
)

// ShortMessageOptions carries optional parameters for a short message request.
type ShortMessageOptions struct {
	// ValidationToken is passed through to the backend's SMS abuse checks.
	ValidationToken string
}

// Backend performs remote calls against the identity service. Implementations
// must return *BackendError for structured rejections and wrap transport
// failures with ErrNetwork. sessionToken may be empty for unauthenticated
// calls. [rest.Client] is the production implementation; tests substitute fakes.
type Backend interface {
	Post(ctx context.Context, path, sessionToken string, body map[string]any) (map[string]any, error)
	Put(ctx context.Context, path, sessionToken string, body map[string]any) (map[string]any, error)
	Get(ctx context.Context, path, sessionToken string, query map[string]string) (map[string]any, error)
}

// Role is a named role the current identity belongs to. Role storage and ACL
// evaluation stay on the backend; this is a read-only projection.
type Role struct {
	Name string
}
