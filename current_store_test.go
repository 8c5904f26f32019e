package goIdentity

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goIdentity/snapshot"
)

// failingStore accepts loads but rejects every write.
type failingStore struct {
	snapshot.Store
}

func (failingStore) Save(context.Context, string, *snapshot.Snapshot) error {
	return errors.New("disk full")
}

func (failingStore) Clear(context.Context, string) error {
	return errors.New("disk full")
}

func newEngineWithStore(t *testing.T, fb *fakeBackend, store snapshot.Store) *Engine {
	t.Helper()
	engine, err := New().WithBackend(fb).WithSnapshotStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestCurrentIdentitySurvivesRestart(t *testing.T) {
	fb := newFakeBackend()
	seeded := seedPasswordUser(fb)
	store := snapshot.NewMemoryStore()

	first := newEngineWithStore(t, fb, store)
	if _, err := first.Authenticate(context.Background(), UsernamePassword{Username: "alice", Password: "correct-horse"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// A second engine over the same store models a process restart.
	second := newEngineWithStore(t, fb, store)
	current, err := second.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	if current == nil || current.ObjectID != seeded.objectID {
		t.Fatal("expected the snapshot to restore the identity after restart")
	}
	if current.SessionToken == "" {
		t.Fatal("expected the restored identity to carry its session token")
	}
}

func TestLogoutClearsSnapshot(t *testing.T) {
	fb := newFakeBackend()
	seedPasswordUser(fb)
	store := snapshot.NewMemoryStore()

	first := newEngineWithStore(t, fb, store)
	if _, err := first.Authenticate(context.Background(), UsernamePassword{Username: "alice", Password: "correct-horse"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := first.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	current, err := first.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	if current != nil {
		t.Fatal("expected no current identity after logout")
	}

	second := newEngineWithStore(t, fb, store)
	current, err = second.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity after restart failed: %v", err)
	}
	if current != nil {
		t.Fatal("logout must clear the durable snapshot too")
	}
}

func TestSnapshotWriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	fb := newFakeBackend()
	seeded := seedPasswordUser(fb)
	engine := newEngineWithStore(t, fb, failingStore{Store: snapshot.NewMemoryStore()})

	identity, err := engine.Authenticate(context.Background(), UsernamePassword{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login must succeed despite the failed snapshot write: %v", err)
	}
	if identity.ObjectID != seeded.objectID {
		t.Fatal("unexpected identity")
	}

	current, err := engine.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	if current == nil || current.ObjectID != seeded.objectID {
		t.Fatal("the in-memory identity must stay authoritative")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricSnapshotWriteFailure] == 0 {
		t.Fatal("expected the failed write to be counted")
	}
}

func TestCurrentIdentityCloneIsolation(t *testing.T) {
	fb := newFakeBackend()
	fb.addUser(fakeUser{
		username: "alice",
		password: "correct-horse",
		authData: map[string]map[string]any{
			string(PlatformQQ): {"id": "qq-1"},
		},
	})
	engine := newTestEngine(t, fb)

	if _, err := engine.Authenticate(context.Background(), UsernamePassword{Username: "alice", Password: "correct-horse"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	first, err := engine.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	first.Username = "mallory"
	first.AuthData[string(PlatformQQ)]["id"] = "tampered"

	second, err := engine.CurrentIdentity(context.Background())
	if err != nil {
		t.Fatalf("CurrentIdentity failed: %v", err)
	}
	if second.Username != "alice" {
		t.Fatal("mutating a returned identity must not affect the cached one")
	}
	if second.AuthData[string(PlatformQQ)]["id"] != "qq-1" {
		t.Fatal("mutating returned auth data must not affect the cached copy")
	}
}
