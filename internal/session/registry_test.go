package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunalabs/luna/internal/session"
)

func record(userID uuid.UUID, ttl time.Duration) session.Record {
	return session.Record{
		UserID:       userID,
		AccessToken:  "luna_token_" + uuid.NewString(),
		RefreshToken: "luna_refresh_" + uuid.NewString(),
		ExpiresAt:    time.Now().Add(ttl),
	}
}

func TestMemoryRegistryLookup(t *testing.T) {
	reg := session.NewMemoryRegistry()
	ctx := context.Background()
	rec := record(uuid.New(), time.Hour)

	if err := reg.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	byAccess, err := reg.GetByAccess(ctx, rec.AccessToken)
	if err != nil || byAccess.UserID != rec.UserID {
		t.Fatalf("GetByAccess = (%+v, %v)", byAccess, err)
	}
	byRefresh, err := reg.GetByRefresh(ctx, rec.RefreshToken)
	if err != nil || byRefresh.AccessToken != rec.AccessToken {
		t.Fatalf("GetByRefresh = (%+v, %v)", byRefresh, err)
	}

	if _, err := reg.GetByAccess(ctx, "unknown"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("unknown access token err = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryRegistryExpiry(t *testing.T) {
	reg := session.NewMemoryRegistry()
	ctx := context.Background()
	rec := record(uuid.New(), -time.Minute)

	if err := reg.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := reg.GetByAccess(ctx, rec.AccessToken); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expired session err = %v, want ErrSessionNotFound", err)
	}
	if _, err := reg.GetByRefresh(ctx, rec.RefreshToken); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("expired refresh err = %v, want ErrSessionNotFound", err)
	}

	if purged := reg.PurgeExpired(time.Now()); purged != 1 {
		t.Errorf("PurgeExpired = %d, want 1", purged)
	}
}

func TestMemoryRegistryDeleteByUser(t *testing.T) {
	reg := session.NewMemoryRegistry()
	ctx := context.Background()
	userID := uuid.New()
	first := record(userID, time.Hour)
	second := record(userID, time.Hour)
	other := record(uuid.New(), time.Hour)

	for _, rec := range []session.Record{first, second, other} {
		if err := reg.Put(ctx, rec); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := reg.DeleteByUser(ctx, userID); err != nil {
		t.Fatalf("DeleteByUser: %v", err)
	}

	for _, rec := range []session.Record{first, second} {
		if _, err := reg.GetByAccess(ctx, rec.AccessToken); !errors.Is(err, session.ErrSessionNotFound) {
			t.Errorf("user session survived DeleteByUser")
		}
	}
	if _, err := reg.GetByAccess(ctx, other.AccessToken); err != nil {
		t.Errorf("unrelated session removed: %v", err)
	}
}
