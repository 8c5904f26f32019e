package snapshot

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps store backend failures (disk, Redis).
var ErrUnavailable = errors.New("snapshot store unavailable")

// Snapshot is the persisted form of the current identity plus its session
// token. The JSON field names are the durable format; changing them breaks
// records written by earlier versions.
type Snapshot struct {
	ObjectID      string                    `json:"objectId"`
	Username      string                    `json:"username,omitempty"`
	Email         string                    `json:"email,omitempty"`
	EmailVerified bool                      `json:"emailVerified,omitempty"`
	Phone         string                    `json:"mobilePhoneNumber,omitempty"`
	PhoneVerified bool                      `json:"mobilePhoneVerified,omitempty"`
	SessionToken  string                    `json:"sessionToken,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt,omitempty"`
	AuthData      map[string]map[string]any `json:"authData,omitempty"`
	Attributes    map[string]any            `json:"attributes,omitempty"`
}

// Store is the durable persistence contract. Load returns (nil, nil) when no
// record exists under key. Save with a nil snapshot is not allowed; callers
// clear with Clear.
type Store interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap *Snapshot) error
	Clear(ctx context.Context, key string) error
}
