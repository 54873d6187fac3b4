package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a registration attempts to reuse an email.
var ErrDuplicateEmail = errors.New("email already registered")

// Directory is an in-memory, thread-safe user store. It backs the simulated
// identity backend and single-process server deployments; the Postgres
// Repository is the durable alternative.
type Directory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*User
	byEmail map[string]uuid.UUID // lowercased email → id
}

// NewDirectory creates an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		byID:    make(map[uuid.UUID]*User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create inserts a new user. Assigns ID, CreatedAt, UpdatedAt on the user.
func (d *Directory) Create(_ context.Context, u *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := d.byEmail[key]; exists {
		return ErrDuplicateEmail
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := cloneUser(u)
	d.byID[u.ID] = cp
	d.byEmail[key] = u.ID
	return nil
}

// GetByID retrieves a user by their internal UUID.
func (d *Directory) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

// GetByEmail retrieves a user by email. The match is case-insensitive.
func (d *Directory) GetByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(d.byID[id]), nil
}

// Update replaces the stored record for u.ID. The email index follows email
// changes; ErrDuplicateEmail if the new email belongs to another account.
func (d *Directory) Update(_ context.Context, u *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.byID[u.ID]
	if !ok {
		return ErrNotFound
	}

	newKey := strings.ToLower(u.Email)
	oldKey := strings.ToLower(prev.Email)
	if newKey != oldKey {
		if _, taken := d.byEmail[newKey]; taken {
			return ErrDuplicateEmail
		}
		delete(d.byEmail, oldKey)
		d.byEmail[newKey] = u.ID
	}

	u.UpdatedAt = time.Now().UTC()
	d.byID[u.ID] = cloneUser(u)
	return nil
}

// Delete removes the user from the directory.
func (d *Directory) Delete(_ context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(d.byEmail, strings.ToLower(u.Email))
	delete(d.byID, id)
	return nil
}

// Len reports the number of users in the directory.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// cloneUser deep-copies a user so callers never share map memory with the store.
func cloneUser(u *User) *User {
	cp := *u
	if u.SocialProviders != nil {
		cp.SocialProviders = make(map[string]SocialIdentity, len(u.SocialProviders))
		for k, v := range u.SocialProviders {
			cp.SocialProviders[k] = v
		}
	}
	return &cp
}
