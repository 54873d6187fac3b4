package session_test

import (
	"testing"

	"github.com/lunalabs/luna/internal/session"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok := store.Get(session.KeyAccessToken); ok {
		t.Fatal("fresh store has a value")
	}
	if err := store.Set(session.KeyAccessToken, "luna_token_abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := store.Get(session.KeyAccessToken)
	if !ok || got != "luna_token_abc" {
		t.Fatalf("Get = (%q, %v), want (luna_token_abc, true)", got, ok)
	}

	if err := store.Delete(session.KeyAccessToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.Get(session.KeyAccessToken); ok {
		t.Error("value survives delete")
	}
	// Deleting an absent key is not an error.
	if err := store.Delete(session.KeyAccessToken); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Set(session.KeyUser, `{"email":"a@b.com"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := session.NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := reopened.Get(session.KeyUser)
	if !ok || got != `{"email":"a@b.com"}` {
		t.Fatalf("reopened Get = (%q, %v)", got, ok)
	}
}

func TestClearRemovesAllSessionKeys(t *testing.T) {
	store := session.NewMemoryStore()
	for _, key := range []string{session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser} {
		if err := store.Set(key, "x"); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	if err := session.Clear(store); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, key := range []string{session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser} {
		if _, ok := store.Get(key); ok {
			t.Errorf("key %s survives Clear", key)
		}
	}
}
