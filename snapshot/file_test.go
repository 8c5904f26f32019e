package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	loaded, err := store.Load(ctx, "currentIdentity")
	if err != nil || loaded != nil {
		t.Fatalf("expected nil for an absent record, got %+v err=%v", loaded, err)
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, "currentIdentity", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err = store.Load(ctx, "currentIdentity")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ObjectID != want.ObjectID || loaded.SessionToken != want.SessionToken {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("expected createdAt %v, got %v", want.CreatedAt, loaded.CreatedAt)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	first := sampleSnapshot()
	if err := store.Save(ctx, "k", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := sampleSnapshot()
	second.SessionToken = "st-2"
	if err := store.Save(ctx, "k", second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SessionToken != "st-2" {
		t.Fatalf("expected the rewritten record, got %+v", loaded)
	}
}

func TestFileStoreClear(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Clear(ctx, "k"); err != nil {
		t.Fatalf("clearing an absent record must not fail: %v", err)
	}

	if err := store.Save(ctx, "k", sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(ctx, "k"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	loaded, err := store.Load(ctx, "k")
	if err != nil || loaded != nil {
		t.Fatalf("expected nil after clear, got %+v err=%v", loaded, err)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "../escape", sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one file inside the store dir, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Fatal("the record must not escape the store directory")
	}
}
