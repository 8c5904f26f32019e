package goIdentity

import (
	"time"
)

// Identity is the authenticated account record. Instances returned by Engine
// operations are read-mostly values: mutating one never affects the cached
// current identity, which the engine owns exclusively.
type Identity struct {
	// ObjectID is the immutable unique identifier assigned by the backend.
	ObjectID string
	// Username is optional and unique (uniqueness enforced by the backend).
	Username string
	// Email is optional and unique; EmailVerified reflects backend state.
	Email         string
	EmailVerified bool
	// Phone is the optional, unique mobile phone number.
	Phone         string
	PhoneVerified bool
	// SessionToken proves this identity on subsequent requests. It rotates on
	// refresh and is never interpreted locally.
	SessionToken string
	CreatedAt    time.Time
	// IsNew is true only immediately after a creation-triggering operation.
	IsNew bool
	// AuthData holds third-party bindings, one platform-defined payload per
	// platform id. Payload shapes are open-ended and kept untyped.
	AuthData map[string]map[string]any
	// Attributes carries any additional object-store attributes the backend
	// returned alongside the reserved fields above.
	Attributes map[string]any
}

// IsAnonymous reports whether the identity was provisioned anonymously.
func (u *Identity) IsAnonymous() bool {
	if u == nil {
		return false
	}
	_, ok := u.AuthData[anonymousPlatformID]
	return ok
}

// clone deep-copies the identity so the store-owned value stays isolated from
// the read-mostly copies handed to callers.
func (u *Identity) clone() *Identity {
	if u == nil {
		return nil
	}

	out := *u
	if u.AuthData != nil {
		out.AuthData = make(map[string]map[string]any, len(u.AuthData))
		for platform, entry := range u.AuthData {
			copied := make(map[string]any, len(entry))
			for k, v := range entry {
				copied[k] = v
			}
			out.AuthData[platform] = copied
		}
	}
	if u.Attributes != nil {
		out.Attributes = make(map[string]any, len(u.Attributes))
		for k, v := range u.Attributes {
			out.Attributes[k] = v
		}
	}

	return &out
}

// Reserved payload fields lifted into Identity struct fields; everything else
// lands in Attributes.
var reservedIdentityFields = map[string]struct{}{
	"objectId":            {},
	"username":            {},
	"email":               {},
	"emailVerified":       {},
	"mobilePhoneNumber":   {},
	"mobilePhoneVerified": {},
	"sessionToken":        {},
	"createdAt":           {},
	"updatedAt":           {},
	"isNew":               {},
	"authData":            {},
}

// identityFromPayload builds an Identity from a backend response body.
func identityFromPayload(payload map[string]any) *Identity {
	u := &Identity{}

	u.ObjectID, _ = payload["objectId"].(string)
	u.Username, _ = payload["username"].(string)
	u.Email, _ = payload["email"].(string)
	u.EmailVerified, _ = payload["emailVerified"].(bool)
	u.Phone, _ = payload["mobilePhoneNumber"].(string)
	u.PhoneVerified, _ = payload["mobilePhoneVerified"].(bool)
	u.SessionToken, _ = payload["sessionToken"].(string)
	u.IsNew, _ = payload["isNew"].(bool)

	if raw, ok := payload["createdAt"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			u.CreatedAt = ts
		}
	}

	if raw, ok := payload["authData"].(map[string]any); ok {
		u.AuthData = make(map[string]map[string]any, len(raw))
		for platform, entry := range raw {
			if fields, ok := entry.(map[string]any); ok {
				u.AuthData[platform] = fields
			}
		}
	}

	for k, v := range payload {
		if _, reserved := reservedIdentityFields[k]; reserved {
			continue
		}
		if u.Attributes == nil {
			u.Attributes = make(map[string]any)
		}
		u.Attributes[k] = v
	}

	return u
}
