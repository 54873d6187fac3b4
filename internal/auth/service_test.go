package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunalabs/luna/internal/auth"
	"github.com/lunalabs/luna/internal/session"
	"github.com/lunalabs/luna/internal/users"
	"go.uber.org/zap"
)

// ── Stub backend ──────────────────────────────────────────────────────────

type stubBackend struct {
	user *users.User

	failCurrent  int // CurrentUser calls to reject before succeeding
	refreshErr   error
	logoutErr    error
	currentCalls int
	refreshCalls int
	logoutCalls  int
	lastToken    string
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		user: &users.User{
			ID:        uuid.New(),
			Email:     "luna@example.com",
			FirstName: "Luna",
			LastName:  "Dreamer",
		},
	}
}

func (b *stubBackend) Register(_ context.Context, _ auth.Registration) (*users.User, auth.TokenPair, error) {
	return b.user, auth.NewTokenPair(time.Hour), nil
}

func (b *stubBackend) Login(_ context.Context, _, _ string) (*users.User, auth.TokenPair, error) {
	return b.user, auth.NewTokenPair(time.Hour), nil
}

func (b *stubBackend) SocialLogin(_ context.Context, _ auth.SocialLogin) (*users.User, auth.TokenPair, error) {
	return b.user, auth.NewTokenPair(time.Hour), nil
}

func (b *stubBackend) Logout(_ context.Context, _ string) error {
	b.logoutCalls++
	return b.logoutErr
}

func (b *stubBackend) CurrentUser(_ context.Context, token string) (*users.User, error) {
	b.currentCalls++
	b.lastToken = token
	if b.failCurrent > 0 {
		b.failCurrent--
		return nil, &auth.AuthError{Message: "authentication required"}
	}
	return b.user, nil
}

func (b *stubBackend) Refresh(_ context.Context, _ string) (auth.TokenPair, error) {
	b.refreshCalls++
	if b.refreshErr != nil {
		return auth.TokenPair{}, b.refreshErr
	}
	return auth.NewTokenPair(time.Hour), nil
}

func (b *stubBackend) UpdateProfile(_ context.Context, token string, _ users.ProfileUpdate) (*users.User, error) {
	return b.CurrentUser(context.Background(), token)
}

func (b *stubBackend) ChangePassword(_ context.Context, token, _, _ string) error {
	_, err := b.CurrentUser(context.Background(), token)
	return err
}

func (b *stubBackend) DeleteAccount(_ context.Context, token string) error {
	_, err := b.CurrentUser(context.Background(), token)
	return err
}

func newTestService(backend auth.IdentityBackend) (*auth.Service, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return auth.NewService(backend, store, zap.NewNop()), store
}

func sessionKeys(store session.Store) []string {
	var present []string
	for _, key := range []string{session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser} {
		if _, ok := store.Get(key); ok {
			present = append(present, key)
		}
	}
	return present
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestLoginPersistsFullSession(t *testing.T) {
	svc, store := newTestService(newStubBackend())

	u, err := svc.Login(context.Background(), "luna@example.com", "Sunrise1!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u == nil {
		t.Fatal("Login returned nil user")
	}
	if got := sessionKeys(store); len(got) != 3 {
		t.Fatalf("persisted keys = %v, want all three", got)
	}
	if !svc.IsAuthenticated() {
		t.Errorf("IsAuthenticated = false after login")
	}

	cur, err := svc.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if cur.Email != u.Email {
		t.Errorf("persisted snapshot email = %q, want %q", cur.Email, u.Email)
	}
}

func TestLogoutClearsSessionEvenWhenBackendFails(t *testing.T) {
	backend := newStubBackend()
	backend.logoutErr = &auth.NetworkError{Message: "unreachable"}
	svc, store := newTestService(backend)

	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if backend.logoutCalls != 1 {
		t.Errorf("remote logout calls = %d, want 1", backend.logoutCalls)
	}
	if got := sessionKeys(store); len(got) != 0 {
		t.Errorf("session keys after logout = %v, want none", got)
	}
	if svc.IsAuthenticated() {
		t.Errorf("IsAuthenticated = true after logout")
	}
}

func TestCurrentUserWithoutSession(t *testing.T) {
	svc, _ := newTestService(newStubBackend())
	if _, err := svc.CurrentUser(); !auth.IsAuthError(err) {
		t.Fatalf("CurrentUser err = %v, want auth error", err)
	}
}

func TestCurrentUserRequiresAccessToken(t *testing.T) {
	svc, store := newTestService(newStubBackend())
	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A user snapshot without its access token is a signed-out state.
	if err := store.Delete(session.KeyAccessToken); err != nil {
		t.Fatalf("delete access token: %v", err)
	}
	if _, err := svc.CurrentUser(); !auth.IsAuthError(err) {
		t.Fatalf("CurrentUser without access token err = %v, want auth error", err)
	}
}

func TestFetchUserRefreshesExactlyOnce(t *testing.T) {
	backend := newStubBackend()
	backend.failCurrent = 1
	svc, store := newTestService(backend)

	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	before, _ := store.Get(session.KeyAccessToken)

	u, err := svc.FetchUser(context.Background())
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if u == nil {
		t.Fatal("FetchUser returned nil user")
	}
	if backend.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", backend.refreshCalls)
	}
	if backend.currentCalls != 2 {
		t.Errorf("CurrentUser calls = %d, want 2", backend.currentCalls)
	}

	after, _ := store.Get(session.KeyAccessToken)
	if after == before {
		t.Errorf("access token not rotated by refresh")
	}
	if backend.lastToken != after {
		t.Errorf("retry used token %q, want refreshed token %q", backend.lastToken, after)
	}
}

func TestFetchUserTerminalAfterSecondFailure(t *testing.T) {
	backend := newStubBackend()
	backend.failCurrent = 2
	svc, store := newTestService(backend)

	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err := svc.FetchUser(context.Background())
	if !auth.IsAuthError(err) {
		t.Fatalf("FetchUser err = %v, want auth error", err)
	}
	if backend.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", backend.refreshCalls)
	}
	if got := sessionKeys(store); len(got) != 0 {
		t.Errorf("session keys after terminal failure = %v, want none", got)
	}
}

func TestFailedRefreshClearsSession(t *testing.T) {
	backend := newStubBackend()
	backend.failCurrent = 1
	backend.refreshErr = &auth.AuthError{Message: "invalid refresh token"}
	svc, store := newTestService(backend)

	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err := svc.FetchUser(context.Background())
	if !auth.IsAuthError(err) {
		t.Fatalf("FetchUser err = %v, want auth error", err)
	}
	if got := sessionKeys(store); len(got) != 0 {
		t.Errorf("session keys after failed refresh = %v, want none", got)
	}
	// No retry after a failed refresh.
	if backend.currentCalls != 1 {
		t.Errorf("CurrentUser calls = %d, want 1", backend.currentCalls)
	}
}

func TestRefreshTokenWithoutSession(t *testing.T) {
	svc, _ := newTestService(newStubBackend())
	err := svc.RefreshToken(context.Background())
	if !auth.IsAuthError(err) {
		t.Fatalf("RefreshToken err = %v, want auth error", err)
	}
}

func TestChangePasswordValidatesLocally(t *testing.T) {
	backend := newStubBackend()
	svc, _ := newTestService(backend)
	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err := svc.ChangePassword(context.Background(), "old", "weak")
	var verr *auth.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("weak new password err = %v, want ValidationError", err)
	}
	if backend.currentCalls != 0 {
		t.Errorf("backend called despite local validation failure")
	}

	if err := svc.ChangePassword(context.Background(), "old", "Moonrise2@"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
}

func TestDeleteAccountClearsSession(t *testing.T) {
	svc, store := newTestService(newStubBackend())
	if _, err := svc.Login(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if got := sessionKeys(store); len(got) != 0 {
		t.Errorf("session keys after account deletion = %v, want none", got)
	}
}
