// Package session holds both halves of Luna session state: the client-side
// key/value store that persists a signed-in session across restarts, and the
// server-side registry of issued token pairs.
package session

// The three keys that make up a persisted client session. A client is
// considered signed in exactly when all three are present.
const (
	KeyAccessToken  = "luna_access_token"
	KeyRefreshToken = "luna_refresh_token"
	KeyUser         = "luna_user"
)

// Store is the client-side persistence surface. Implementations must treat a
// missing key as "signed out", never as an error.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set writes key to value, overwriting any existing value.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Clear removes all three session keys from s, returning the first error.
// Used on logout and on terminal refresh failure.
func Clear(s Store) error {
	var first error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := s.Delete(key); err != nil && first == nil {
			first = err
		}
	}
	return first
}
