package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lunalabs/luna/internal/session"
	"github.com/lunalabs/luna/internal/users"
	"go.uber.org/zap"
)

// Service is the client-side authentication facade. It drives an
// IdentityBackend and keeps the persisted session (access token, refresh
// token, user snapshot) in sync with every operation.
//
// Authenticated operations retry exactly once: on an authentication failure
// the service refreshes the token pair and repeats the call. A second
// failure, or a failed refresh, clears the session.
type Service struct {
	backend IdentityBackend
	store   session.Store
	logger  *zap.Logger
}

// NewService creates a Service over the given backend and session store.
func NewService(backend IdentityBackend, store session.Store, logger *zap.Logger) *Service {
	return &Service{backend: backend, store: store, logger: logger}
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	u, pair, err := s.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := s.persist(u, pair); err != nil {
		return nil, err
	}
	return u, nil
}

// Login signs in with email and password and persists the session.
func (s *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	u, pair, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.persist(u, pair); err != nil {
		return nil, err
	}
	return u, nil
}

// SocialLogin signs in via a social provider token and persists the session.
func (s *Service) SocialLogin(ctx context.Context, req SocialLogin) (*users.User, error) {
	u, pair, err := s.backend.SocialLogin(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.persist(u, pair); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout revokes the session remotely on a best-effort basis and always
// clears local session state, even when the revocation fails.
func (s *Service) Logout(ctx context.Context) error {
	if token, ok := s.store.Get(session.KeyAccessToken); ok {
		if err := s.backend.Logout(ctx, token); err != nil {
			s.logger.Warn("remote logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return session.Clear(s.store)
}

// IsAuthenticated reports whether a complete session is persisted.
func (s *Service) IsAuthenticated() bool {
	for _, key := range []string{session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser} {
		if _, ok := s.store.Get(key); !ok {
			return false
		}
	}
	return true
}

// CurrentUser returns the persisted user snapshot without a network call.
// A missing access token or user snapshot both mean signed out.
func (s *Service) CurrentUser() (*users.User, error) {
	if _, ok := s.store.Get(session.KeyAccessToken); !ok {
		return nil, &AuthError{Message: "authentication required"}
	}
	raw, ok := s.store.Get(session.KeyUser)
	if !ok {
		return nil, &AuthError{Message: "authentication required"}
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode persisted user: %w", err)
	}
	return &u, nil
}

// FetchUser re-fetches the signed-in user from the backend and refreshes
// the persisted snapshot.
func (s *Service) FetchUser(ctx context.Context) (*users.User, error) {
	var u *users.User
	err := s.withRetry(ctx, func(token string) error {
		var err error
		u, err = s.backend.CurrentUser(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// RefreshToken exchanges the persisted refresh token for a fresh pair. A
// failed refresh is terminal: the session is cleared and the caller must
// sign in again.
func (s *Service) RefreshToken(ctx context.Context) error {
	refresh, ok := s.store.Get(session.KeyRefreshToken)
	if !ok {
		return &AuthError{Message: "no refresh token available"}
	}
	pair, err := s.backend.Refresh(ctx, refresh)
	if err != nil {
		if clearErr := session.Clear(s.store); clearErr != nil {
			s.logger.Warn("clear session after failed refresh", zap.Error(clearErr))
		}
		return &AuthError{Message: "session expired, please sign in again"}
	}
	if err := s.store.Set(session.KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	return s.store.Set(session.KeyRefreshToken, pair.RefreshToken)
}

// UpdateProfile applies a partial profile update and persists the returned
// user snapshot.
func (s *Service) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.User, error) {
	var u *users.User
	err := s.withRetry(ctx, func(token string) error {
		var err error
		u, err = s.backend.UpdateProfile(ctx, token, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies the new password locally before asking the backend
// to change it.
func (s *Service) ChangePassword(ctx context.Context, current, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	return s.withRetry(ctx, func(token string) error {
		return s.backend.ChangePassword(ctx, token, current, newPassword)
	})
}

// DeleteAccount permanently deletes the account and clears the session.
func (s *Service) DeleteAccount(ctx context.Context) error {
	err := s.withRetry(ctx, func(token string) error {
		return s.backend.DeleteAccount(ctx, token)
	})
	if err != nil {
		return err
	}
	return session.Clear(s.store)
}

// withRetry runs fn with the persisted access token, refreshing and retrying
// exactly once on an authentication failure. Any second authentication
// failure clears the session.
func (s *Service) withRetry(ctx context.Context, fn func(token string) error) error {
	token, ok := s.store.Get(session.KeyAccessToken)
	if !ok {
		return &AuthError{Message: "authentication required"}
	}

	err := fn(token)
	if !IsAuthError(err) {
		return err
	}

	if err := s.RefreshToken(ctx); err != nil {
		return err
	}
	token, ok = s.store.Get(session.KeyAccessToken)
	if !ok {
		return &AuthError{Message: "authentication required"}
	}

	err = fn(token)
	if IsAuthError(err) {
		if clearErr := session.Clear(s.store); clearErr != nil {
			s.logger.Warn("clear session after repeated auth failure", zap.Error(clearErr))
		}
		return &AuthError{Message: "session expired, please sign in again"}
	}
	return err
}

// persist writes the full three-key session.
func (s *Service) persist(u *users.User, pair TokenPair) error {
	if err := s.store.Set(session.KeyAccessToken, pair.AccessToken); err != nil {
		return err
	}
	if err := s.store.Set(session.KeyRefreshToken, pair.RefreshToken); err != nil {
		return err
	}
	return s.persistUser(u)
}

// persistUser refreshes only the user snapshot key.
func (s *Service) persistUser(u *users.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	return s.store.Set(session.KeyUser, string(raw))
}
