package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no live session matches a token.
var ErrSessionNotFound = errors.New("session not found")

// Record is one issued token pair on the server side.
type Record struct {
	UserID       uuid.UUID `json:"userId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Registry tracks issued sessions server-side so tokens can be validated,
// refreshed, and revoked. Implementations must be safe for concurrent use.
type Registry interface {
	// Put stores a record, indexed by both tokens.
	Put(ctx context.Context, rec Record) error
	// GetByAccess returns the live record for an access token.
	// Expired or unknown tokens yield ErrSessionNotFound.
	GetByAccess(ctx context.Context, accessToken string) (Record, error)
	// GetByRefresh returns the live record for a refresh token.
	GetByRefresh(ctx context.Context, refreshToken string) (Record, error)
	// Delete revokes the session holding accessToken. Unknown tokens are a no-op.
	Delete(ctx context.Context, accessToken string) error
	// DeleteByUser revokes every session belonging to userID.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
