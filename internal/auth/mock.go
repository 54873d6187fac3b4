package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lunalabs/luna/internal/users"
	"go.uber.org/zap"
)

// mockSession is one issued token pair in the simulated backend.
type mockSession struct {
	userID       uuid.UUID
	refreshToken string
	expiresAt    time.Time
}

// MockBackend simulates the Luna identity API against an in-memory user
// directory. It issues and tracks opaque token pairs so CurrentUser and
// Refresh behave like the real service. Login deliberately accepts any
// password of length >= 3 — a stand-in for credential verification that must
// never be ported to a real-credential path.
type MockBackend struct {
	dir     *users.Directory
	logger  *zap.Logger
	latency time.Duration

	mu       sync.Mutex
	byAccess map[string]*mockSession
}

// NewMockBackend creates a MockBackend over the given directory.
func NewMockBackend(dir *users.Directory, logger *zap.Logger) *MockBackend {
	return &MockBackend{
		dir:      dir,
		logger:   logger,
		byAccess: make(map[string]*mockSession),
	}
}

// SetLatency adds an artificial delay before every operation, approximating
// a network round trip. Zero (the default) disables it.
func (b *MockBackend) SetLatency(d time.Duration) {
	b.latency = d
}

// SeedDemoUsers populates the directory with the demo accounts every fresh
// simulation knows about: demo@luna.com (premium) and test@example.com (free).
func SeedDemoUsers(dir *users.Directory) error {
	ctx := context.Background()
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	demo := &users.User{
		Email:         "demo@luna.com",
		FirstName:     "Demo",
		LastName:      "User",
		EmailVerified: true,
		Preferences:   users.DefaultPreferences(),
		Subscription:  users.Subscription{Plan: users.PlanPremium, Status: users.StatusActive},
		Stats:         users.Stats{TotalDreams: 12, StreakDays: 7, JoinedAt: joined},
	}
	demo.LinkProvider("google", users.SocialIdentity{
		ID:          "google_123456789",
		Email:       "demo@luna.com",
		ConnectedAt: joined,
	})
	if err := dir.Create(ctx, demo); err != nil {
		return err
	}

	test := &users.User{
		Email:         "test@example.com",
		FirstName:     "Test",
		LastName:      "User",
		EmailVerified: true,
		Preferences:   users.DefaultPreferences(),
		Subscription:  users.FreeSubscription(),
		Stats:         users.Stats{TotalDreams: 5, StreakDays: 3, JoinedAt: joined.AddDate(0, 1, 0)},
	}
	return dir.Create(ctx, test)
}

// Register implements IdentityBackend.
func (b *MockBackend) Register(ctx context.Context, reg Registration) (*users.User, TokenPair, error) {
	if err := b.simulate(ctx); err != nil {
		return nil, TokenPair{}, err
	}
	if err := ValidateRegistration(reg); err != nil {
		return nil, TokenPair{}, err
	}
	if _, err := b.dir.GetByEmail(ctx, reg.Email); err == nil {
		return nil, TokenPair{}, &ConflictError{Message: "an account with this email already exists"}
	}

	u := &users.User{
		Email:        strings.ToLower(strings.TrimSpace(reg.Email)),
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Preferences:  users.DefaultPreferences(),
		Subscription: users.FreeSubscription(),
		Stats:        users.Stats{JoinedAt: time.Now().UTC()},
	}
	if err := b.dir.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, TokenPair{}, &ConflictError{Message: "an account with this email already exists"}
		}
		return nil, TokenPair{}, err
	}
	return u, b.issue(u.ID), nil
}

// Login implements IdentityBackend.
func (b *MockBackend) Login(ctx context.Context, email, password string) (*users.User, TokenPair, error) {
	if err := b.simulate(ctx); err != nil {
		return nil, TokenPair{}, err
	}
	u, err := b.dir.GetByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, &AuthError{Message: "invalid credentials"}
	}
	if len(password) < 3 {
		return nil, TokenPair{}, &AuthError{Message: "invalid credentials"}
	}

	now := time.Now().UTC()
	u.Stats.LastLoginAt = &now
	if err := b.dir.Update(ctx, u); err != nil {
		b.logger.Warn("update last login", zap.Error(err))
	}
	return u, b.issue(u.ID), nil
}

// SocialLogin implements IdentityBackend.
func (b *MockBackend) SocialLogin(ctx context.Context, req SocialLogin) (*users.User, TokenPair, error) {
	if err := b.simulate(ctx); err != nil {
		return nil, TokenPair{}, err
	}
	if len(req.Token) < 10 {
		return nil, TokenPair{}, &AuthError{Message: "invalid authentication token"}
	}

	now := time.Now().UTC()
	identity := users.SocialIdentity{
		ID:          req.Provider + "_" + randomHex(6),
		Email:       req.Email,
		ConnectedAt: now,
	}

	u, err := b.dir.GetByEmail(ctx, req.Email)
	if err == nil {
		u.LinkProvider(req.Provider, identity)
		if req.ProfilePicture != "" {
			u.ProfilePicture = req.ProfilePicture
		}
		u.Stats.LastLoginAt = &now
		if err := b.dir.Update(ctx, u); err != nil {
			return nil, TokenPair{}, err
		}
		return u, b.issue(u.ID), nil
	}

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, TokenPair{}, &ValidationError{
			Field:   "email",
			Message: "email, first name, and last name are required for new accounts",
		}
	}

	u = &users.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		EmailVerified:  true, // social accounts are pre-verified
		ProfilePicture: req.ProfilePicture,
		Preferences:    users.DefaultPreferences(),
		Subscription:   users.FreeSubscription(),
		Stats:          users.Stats{JoinedAt: now, LastLoginAt: &now},
	}
	u.LinkProvider(req.Provider, identity)
	if err := b.dir.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	return u, b.issue(u.ID), nil
}

// Logout implements IdentityBackend.
func (b *MockBackend) Logout(ctx context.Context, accessToken string) error {
	if err := b.simulate(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.byAccess, accessToken)
	b.mu.Unlock()
	return nil
}

// CurrentUser implements IdentityBackend.
func (b *MockBackend) CurrentUser(ctx context.Context, accessToken string) (*users.User, error) {
	if err := b.simulate(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	sess, ok := b.byAccess[accessToken]
	b.mu.Unlock()
	if !ok || time.Now().After(sess.expiresAt) {
		return nil, &AuthError{Message: "authentication required"}
	}
	u, err := b.dir.GetByID(ctx, sess.userID)
	if err != nil {
		return nil, &AuthError{Message: "authentication required"}
	}
	return u, nil
}

// Refresh implements IdentityBackend. The simulated path always succeeds for
// a known refresh token and rotates both tokens.
func (b *MockBackend) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := b.simulate(ctx); err != nil {
		return TokenPair{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for access, sess := range b.byAccess {
		if sess.refreshToken == refreshToken {
			delete(b.byAccess, access)
			pair := NewTokenPair(DefaultSessionTTL)
			b.byAccess[pair.AccessToken] = &mockSession{
				userID:       sess.userID,
				refreshToken: pair.RefreshToken,
				expiresAt:    pair.ExpiresAt,
			}
			return pair, nil
		}
	}
	return TokenPair{}, &AuthError{Message: "invalid refresh token"}
}

// UpdateProfile implements IdentityBackend.
func (b *MockBackend) UpdateProfile(ctx context.Context, accessToken string, update users.ProfileUpdate) (*users.User, error) {
	u, err := b.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	update.Apply(u)
	if err := b.dir.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword implements IdentityBackend. The simulation only checks the
// new password's length.
func (b *MockBackend) ChangePassword(ctx context.Context, accessToken, _, newPassword string) error {
	if _, err := b.CurrentUser(ctx, accessToken); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return &ValidationError{Field: "newPassword", Message: "new password must be at least 8 characters long"}
	}
	return nil
}

// DeleteAccount implements IdentityBackend.
func (b *MockBackend) DeleteAccount(ctx context.Context, accessToken string) error {
	u, err := b.CurrentUser(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := b.dir.Delete(ctx, u.ID); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.byAccess, accessToken)
	b.mu.Unlock()
	return nil
}

// issue mints and records a fresh token pair for the user.
func (b *MockBackend) issue(userID uuid.UUID) TokenPair {
	pair := NewTokenPair(DefaultSessionTTL)
	b.mu.Lock()
	b.byAccess[pair.AccessToken] = &mockSession{
		userID:       userID,
		refreshToken: pair.RefreshToken,
		expiresAt:    pair.ExpiresAt,
	}
	b.mu.Unlock()
	return pair
}

// simulate sleeps for the configured artificial latency, respecting ctx.
func (b *MockBackend) simulate(ctx context.Context) error {
	if b.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(b.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
