package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DefaultSessionTTL is how long an issued token pair stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenPair is an issued session: opaque access and refresh tokens plus the
// instant the access token expires. The tokens carry no claims; they are
// random identifiers looked up server-side.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// NewTokenPair mints a fresh opaque token pair expiring ttl from now.
func NewTokenPair(ttl time.Duration) TokenPair {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	return TokenPair{
		AccessToken:  "luna_token_" + randomHex(16),
		RefreshToken: "luna_refresh_" + randomHex(16),
		ExpiresAt:    time.Now().UTC().Add(ttl),
	}
}

// randomHex returns a hex-encoded random string of n bytes of entropy.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
