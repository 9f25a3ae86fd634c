package cache

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key := "profile:u1"
	val := []byte(`{"id":"u1","name":"Nimal"}`)

	if err := st.Set(ctx, key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get=%s want=%s", got, val)
	}

	if err := st.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := st.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove: err=%v want ErrNotFound", err)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	t.Parallel()

	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := st.Get(context.Background(), "profile:absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestFileStoreCorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key := "profile:u2"
	if err := st.Set(ctx, key, []byte(`{"id":"u2"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Truncate the entry file in place; the store must report a miss,
	// never a decode error.
	if err := os.WriteFile(st.path(key), []byte("{garbage"), 0o600); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	if _, err := st.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestFileStoreKeyMismatchIsMiss(t *testing.T) {
	t.Parallel()

	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := st.Set(ctx, "profile:u3", []byte(`{"id":"u3"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Copy the entry onto another key's path to simulate a collision.
	data, err := os.ReadFile(st.path("profile:u3"))
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if err := os.WriteFile(st.path("profile:other"), data, 0o600); err != nil {
		t.Fatalf("write entry: %v", err)
	}

	if _, err := st.Get(ctx, "profile:other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestFileStoreRemoveMissingIsNoop(t *testing.T) {
	t.Parallel()

	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := st.Remove(context.Background(), "profile:absent"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	val := []byte(`{"id":"u1"}`)
	if err := st.Set(ctx, "k", val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val[0] = 'X'

	got, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"id":"u1"}` {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}

	got[0] = 'Y'
	again, err := st.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != `{"id":"u1"}` {
		t.Fatalf("returned value aliased store slice: %s", again)
	}
}
