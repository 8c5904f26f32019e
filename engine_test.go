package goIdentity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBackend is an in-memory stand-in for the remote identity service with
// just enough account semantics to exercise every engine flow.
type fakeBackend struct {
	mu       sync.Mutex
	users    []*fakeUser
	smsCodes map[string]string // identifier -> currently valid code
	roles    []string
	nextID   int

	signups  atomic.Int64
	requests map[string]int

	failWith error
}

type fakeUser struct {
	objectID      string
	username      string
	email         string
	phone         string
	password      string
	emailVerified bool
	phoneVerified bool
	sessionToken  string
	authData      map[string]map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		smsCodes: map[string]string{},
		requests: map[string]int{},
	}
}

func (fb *fakeBackend) addUser(u fakeUser) *fakeUser {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	copied := u
	if copied.objectID == "" {
		copied.objectID = fb.newIDLocked("u")
	}
	if copied.sessionToken == "" {
		copied.sessionToken = fb.newIDLocked("st")
	}
	fb.users = append(fb.users, &copied)
	return &copied
}

func (fb *fakeBackend) newIDLocked(prefix string) string {
	fb.nextID++
	return fmt.Sprintf("%s-%d", prefix, fb.nextID)
}

func (fb *fakeBackend) userCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.users)
}

func (fb *fakeBackend) requestCount(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests[path]
}

func (fb *fakeBackend) userPayload(u *fakeUser, isNew bool) map[string]any {
	payload := map[string]any{
		"objectId":            u.objectID,
		"sessionToken":        u.sessionToken,
		"emailVerified":       u.emailVerified,
		"mobilePhoneVerified": u.phoneVerified,
		"isNew":               isNew,
		"createdAt":           time.Now().UTC().Format(time.RFC3339),
	}
	if u.username != "" {
		payload["username"] = u.username
	}
	if u.email != "" {
		payload["email"] = u.email
	}
	if u.phone != "" {
		payload["mobilePhoneNumber"] = u.phone
	}
	if len(u.authData) > 0 {
		raw := make(map[string]any, len(u.authData))
		for platform, entry := range u.authData {
			fields := make(map[string]any, len(entry))
			for k, v := range entry {
				fields[k] = v
			}
			raw[platform] = fields
		}
		payload["authData"] = raw
	}
	return payload
}

func backendReject(code int, msg string) error {
	return &BackendError{Code: code, Message: msg}
}

func (fb *fakeBackend) Post(_ context.Context, path, _ string, body map[string]any) (map[string]any, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.failWith != nil {
		return nil, fb.failWith
	}
	fb.requests[path]++

	switch {
	case path == pathLogin:
		return fb.loginLocked(body)
	case path == pathUsers:
		strict, _ := body["failOnNotExist"].(bool)
		if raw, ok := body["authData"].(map[string]any); ok {
			return fb.authDataLoginLocked(raw, strict)
		}
		return fb.signupLocked(body)
	case path == pathUsersByPhone:
		return fb.signupOrLoginByPhoneLocked(body)
	case path == pathRequestSMSCode, path == pathRequestEmailVerify, path == pathRequestPasswordReset:
		return map[string]any{}, nil
	case strings.HasPrefix(path, pathVerifySMSCode+"/"):
		code := strings.TrimPrefix(path, pathVerifySMSCode+"/")
		phone, _ := body["mobilePhoneNumber"].(string)
		if fb.smsCodes[phone] != code {
			return nil, backendReject(codeCodeInvalid, "invalid code")
		}
		return map[string]any{}, nil
	}
	return nil, backendReject(1, "unhandled POST "+path)
}

func (fb *fakeBackend) Put(_ context.Context, path, sessionToken string, body map[string]any) (map[string]any, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.failWith != nil {
		return nil, fb.failWith
	}
	fb.requests[path]++

	switch {
	case strings.HasPrefix(path, pathResetPasswordBySMS+"/"):
		code := strings.TrimPrefix(path, pathResetPasswordBySMS+"/")
		phone, _ := body["mobilePhoneNumber"].(string)
		if fb.smsCodes[phone] != code {
			return nil, backendReject(codeCodeInvalid, "invalid code")
		}
		u := fb.findLocked(func(u *fakeUser) bool { return u.phone == phone })
		if u == nil {
			return nil, backendReject(codePhoneNotFound, "phone not found")
		}
		u.password, _ = body["password"].(string)
		return map[string]any{}, nil

	case strings.HasSuffix(path, "/refreshSessionToken"):
		u := fb.findLocked(func(u *fakeUser) bool { return u.sessionToken == sessionToken })
		if u == nil {
			return nil, backendReject(codeSessionMissing, "session missing")
		}
		u.sessionToken = fb.newIDLocked("st")
		return map[string]any{"sessionToken": u.sessionToken}, nil

	case strings.HasSuffix(path, "/updatePassword"):
		u := fb.findLocked(func(u *fakeUser) bool { return u.sessionToken == sessionToken })
		if u == nil {
			return nil, backendReject(codeSessionMissing, "session missing")
		}
		if old, _ := body["old_password"].(string); old != u.password {
			return nil, backendReject(codeLoginMismatch, "old password mismatch")
		}
		u.password, _ = body["new_password"].(string)
		u.sessionToken = fb.newIDLocked("st")
		return map[string]any{"sessionToken": u.sessionToken}, nil

	case strings.HasPrefix(path, pathUsers+"/"):
		id := strings.TrimPrefix(path, pathUsers+"/")
		u := fb.findLocked(func(u *fakeUser) bool { return u.objectID == id })
		if u == nil || u.sessionToken != sessionToken {
			return nil, backendReject(codeSessionMissing, "session missing")
		}
		return fb.updateAuthDataLocked(u, body)
	}
	return nil, backendReject(1, "unhandled PUT "+path)
}

func (fb *fakeBackend) Get(_ context.Context, path, sessionToken string, _ map[string]string) (map[string]any, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.failWith != nil {
		return nil, fb.failWith
	}
	fb.requests[path]++

	switch {
	case path == pathMe:
		u := fb.findLocked(func(u *fakeUser) bool { return u.sessionToken == sessionToken })
		if u == nil {
			return nil, backendReject(codeUserNotFound, "session invalid")
		}
		return fb.userPayload(u, false), nil

	case strings.HasSuffix(path, "/roles"):
		results := make([]any, 0, len(fb.roles))
		for _, name := range fb.roles {
			results = append(results, map[string]any{"name": name})
		}
		return map[string]any{"results": results}, nil
	}
	return nil, backendReject(1, "unhandled GET "+path)
}

func (fb *fakeBackend) findLocked(match func(*fakeUser) bool) *fakeUser {
	for _, u := range fb.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (fb *fakeBackend) loginLocked(body map[string]any) (map[string]any, error) {
	phone, _ := body["mobilePhoneNumber"].(string)

	if code, ok := body["smsCode"].(string); ok {
		u := fb.findLocked(func(u *fakeUser) bool { return u.phone == phone })
		if u == nil {
			return nil, backendReject(codePhoneNotFound, "phone not found")
		}
		if fb.smsCodes[phone] != code {
			return nil, backendReject(codeCodeInvalid, "invalid code")
		}
		return fb.userPayload(u, false), nil
	}

	username, _ := body["username"].(string)
	email, _ := body["email"].(string)
	u := fb.findLocked(func(u *fakeUser) bool {
		switch {
		case username != "":
			return u.username == username
		case email != "":
			return u.email == email
		case phone != "":
			return u.phone == phone
		}
		return false
	})
	if u == nil {
		return nil, backendReject(codeUserNotFound, "user not found")
	}
	if password, _ := body["password"].(string); password != u.password {
		return nil, backendReject(codeLoginMismatch, "password mismatch")
	}
	return fb.userPayload(u, false), nil
}

func (fb *fakeBackend) signupLocked(body map[string]any) (map[string]any, error) {
	username, _ := body["username"].(string)
	if fb.findLocked(func(u *fakeUser) bool { return u.username == username }) != nil {
		return nil, backendReject(codeUsernameTaken, "username taken")
	}

	u := &fakeUser{
		objectID:     fb.newIDLocked("u"),
		username:     username,
		sessionToken: fb.newIDLocked("st"),
	}
	u.password, _ = body["password"].(string)
	u.email, _ = body["email"].(string)
	fb.users = append(fb.users, u)
	fb.signups.Add(1)
	return fb.userPayload(u, true), nil
}

func (fb *fakeBackend) signupOrLoginByPhoneLocked(body map[string]any) (map[string]any, error) {
	phone, _ := body["mobilePhoneNumber"].(string)
	code, _ := body["smsCode"].(string)
	if fb.smsCodes[phone] != code {
		return nil, backendReject(codeCodeInvalid, "invalid code")
	}

	if u := fb.findLocked(func(u *fakeUser) bool { return u.phone == phone }); u != nil {
		return fb.userPayload(u, false), nil
	}

	u := &fakeUser{
		objectID:      fb.newIDLocked("u"),
		phone:         phone,
		phoneVerified: true,
		sessionToken:  fb.newIDLocked("st"),
	}
	u.password, _ = body["password"].(string)
	fb.users = append(fb.users, u)
	fb.signups.Add(1)
	return fb.userPayload(u, true), nil
}

// authDataLoginLocked resolves an auth-data login: union-id match first, with
// main-account bindings winning ties, then exact per-platform id match, then
// implicit signup unless strict.
func (fb *fakeBackend) authDataLoginLocked(raw map[string]any, strict bool) (map[string]any, error) {
	var platformID string
	var entry map[string]any
	for p, e := range raw {
		platformID = p
		entry, _ = e.(map[string]any)
	}
	if entry == nil {
		return nil, backendReject(codeValidationFailed, "malformed auth data")
	}

	if match := fb.matchAuthDataLocked(platformID, entry); match != nil {
		if match.authData == nil {
			match.authData = map[string]map[string]any{}
		}
		match.authData[platformID] = entry
		return fb.userPayload(match, false), nil
	}

	if strict {
		return nil, backendReject(codeUserNotFound, "no account for auth data")
	}

	u := &fakeUser{
		objectID:     fb.newIDLocked("u"),
		sessionToken: fb.newIDLocked("st"),
		authData:     map[string]map[string]any{platformID: entry},
	}
	fb.users = append(fb.users, u)
	fb.signups.Add(1)
	return fb.userPayload(u, true), nil
}

func (fb *fakeBackend) matchAuthDataLocked(platformID string, entry map[string]any) *fakeUser {
	if unionID, _ := entry[authDataKeyUnionID].(string); unionID != "" {
		var fallback *fakeUser
		for _, u := range fb.users {
			for _, binding := range u.authData {
				if bid, _ := binding[authDataKeyUnionID].(string); bid != unionID {
					continue
				}
				if main, _ := binding[authDataKeyMainAccount].(bool); main {
					return u
				}
				if fallback == nil {
					fallback = u
				}
			}
		}
		if fallback != nil {
			return fallback
		}
	}

	id, _ := entry["id"].(string)
	if id == "" {
		return nil
	}
	return fb.findLocked(func(u *fakeUser) bool {
		binding, ok := u.authData[platformID]
		if !ok {
			return false
		}
		bound, _ := binding["id"].(string)
		return bound == id
	})
}

func (fb *fakeBackend) updateAuthDataLocked(u *fakeUser, body map[string]any) (map[string]any, error) {
	if raw, ok := body["authData"].(map[string]any); ok {
		for platformID, e := range raw {
			entry, _ := e.(map[string]any)
			id, _ := entry["id"].(string)
			owner := fb.findLocked(func(other *fakeUser) bool {
				if other == u {
					return false
				}
				binding, ok := other.authData[platformID]
				if !ok {
					return false
				}
				bound, _ := binding["id"].(string)
				return id != "" && bound == id
			})
			if owner != nil {
				return nil, backendReject(codeBindingTaken, "binding already taken")
			}
			if u.authData == nil {
				u.authData = map[string]map[string]any{}
			}
			u.authData[platformID] = entry
		}
		return fb.userPayload(u, false), nil
	}

	for key := range body {
		if !strings.HasPrefix(key, "authData.") {
			continue
		}
		delete(u.authData, strings.TrimPrefix(key, "authData."))
	}
	return fb.userPayload(u, false), nil
}

func newTestEngine(t *testing.T, fb *fakeBackend) *Engine {
	t.Helper()
	return newTestEngineConfig(t, fb, defaultConfig())
}

func newTestEngineConfig(t *testing.T, fb *fakeBackend, cfg Config) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithBackend(fb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedPasswordUser(fb *fakeBackend) *fakeUser {
	return fb.addUser(fakeUser{
		username: "alice",
		email:    "alice@example.com",
		phone:    "+15550001111",
		password: "correct-horse",
	})
}
