package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory Registry for development and tests.
type MemoryRegistry struct {
	mu        sync.RWMutex
	byAccess  map[string]Record
	byRefresh map[string]string // refresh token -> access token
}

// NewMemoryRegistry creates an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byAccess:  make(map[string]Record),
		byRefresh: make(map[string]string),
	}
}

func (r *MemoryRegistry) Put(_ context.Context, rec Record) error {
	r.mu.Lock()
	r.byAccess[rec.AccessToken] = rec
	r.byRefresh[rec.RefreshToken] = rec.AccessToken
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) GetByAccess(_ context.Context, accessToken string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byAccess[accessToken]
	if !ok || rec.Expired(time.Now()) {
		return Record{}, ErrSessionNotFound
	}
	return rec, nil
}

func (r *MemoryRegistry) GetByRefresh(_ context.Context, refreshToken string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	access, ok := r.byRefresh[refreshToken]
	if !ok {
		return Record{}, ErrSessionNotFound
	}
	rec, ok := r.byAccess[access]
	if !ok || rec.Expired(time.Now()) {
		return Record{}, ErrSessionNotFound
	}
	return rec, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, accessToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byAccess[accessToken]; ok {
		delete(r.byRefresh, rec.RefreshToken)
		delete(r.byAccess, accessToken)
	}
	return nil
}

func (r *MemoryRegistry) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for access, rec := range r.byAccess {
		if rec.UserID == userID {
			delete(r.byRefresh, rec.RefreshToken)
			delete(r.byAccess, access)
		}
	}
	return nil
}

// PurgeExpired drops expired records and returns how many were removed.
// Called periodically from the server's cleanup loop.
func (r *MemoryRegistry) PurgeExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	purged := 0
	for access, rec := range r.byAccess {
		if rec.Expired(now) {
			delete(r.byRefresh, rec.RefreshToken)
			delete(r.byAccess, access)
			purged++
		}
	}
	return purged
}
