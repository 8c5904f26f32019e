package goIdentity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MrEthical07/goIdentity/snapshot"
)

// currentIdentityStore owns the one "current" identity for the process: an
// in-memory cache loaded lazily from the snapshot store, with every mutation
// serialized. No other component retains an Identity reference; they all work
// on read-mostly clones handed out by Current.
type currentIdentityStore struct {
	mu      sync.Mutex
	loaded  bool
	current *Identity

	store   snapshot.Store
	key     string
	logger  *zap.Logger
	metrics *Metrics
}

func newCurrentIdentityStore(store snapshot.Store, key string, logger *zap.Logger, metrics *Metrics) *currentIdentityStore {
	return &currentIdentityStore{
		store:   store,
		key:     key,
		logger:  logger,
		metrics: metrics,
	}
}

// Current returns a clone of the cached identity, loading the durable snapshot
// on first access after process start. A nil identity with nil error means no
// current identity exists.
func (s *currentIdentityStore) Current(ctx context.Context) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.current.clone(), nil
}

func (s *currentIdentityStore) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	snap, err := s.store.Load(ctx, s.key)
	if err != nil {
		return err
	}
	if snap != nil {
		s.current = identityFromSnapshot(snap)
	}
	s.loaded = true
	return nil
}

// Set atomically replaces the cached identity. A nil identity with persist
// clears durable storage (logout semantics). The in-memory update always wins:
// a failed durable write is logged and counted but never rolls the cache back.
func (s *currentIdentityStore) Set(ctx context.Context, identity *Identity, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = identity.clone()
	s.loaded = true

	if !persist {
		return nil
	}

	var err error
	if identity == nil {
		err = s.store.Clear(ctx, s.key)
	} else {
		err = s.store.Save(ctx, s.key, snapshotFromIdentity(identity))
	}
	if err != nil {
		s.metrics.Inc(MetricSnapshotWriteFailure)
		s.logger.Warn("current identity snapshot write failed; in-memory identity stays authoritative",
			zap.Error(err),
		)
	}
	return err
}

func snapshotFromIdentity(u *Identity) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ObjectID:      u.ObjectID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		SessionToken:  u.SessionToken,
		CreatedAt:     u.CreatedAt,
		AuthData:      u.AuthData,
		Attributes:    u.Attributes,
	}
}

func identityFromSnapshot(snap *snapshot.Snapshot) *Identity {
	return &Identity{
		ObjectID:      snap.ObjectID,
		Username:      snap.Username,
		Email:         snap.Email,
		EmailVerified: snap.EmailVerified,
		Phone:         snap.Phone,
		PhoneVerified: snap.PhoneVerified,
		SessionToken:  snap.SessionToken,
		CreatedAt:     snap.CreatedAt,
		AuthData:      snap.AuthData,
		Attributes:    snap.Attributes,
	}
}
