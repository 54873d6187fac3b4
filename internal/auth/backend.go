package auth

import (
	"context"

	"github.com/lunalabs/luna/internal/users"
)

// Registration is the input to Register.
type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

// SocialLogin is the input to the social sign-in flow. Token is the
// provider-issued credential; Email/FirstName/LastName are required only when
// no account exists for the email yet.
type SocialLogin struct {
	Provider       string `json:"provider"`
	Token          string `json:"token"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// IdentityBackend is the capability interface behind the session Service.
// Two implementations exist: MockBackend (in-process simulation) and
// HTTPBackend (the Luna API). Selection happens once at wiring time; the
// Service never branches on a mode flag.
type IdentityBackend interface {
	Register(ctx context.Context, reg Registration) (*users.User, TokenPair, error)
	Login(ctx context.Context, email, password string) (*users.User, TokenPair, error)
	SocialLogin(ctx context.Context, req SocialLogin) (*users.User, TokenPair, error)

	// Logout invalidates the session server-side. Best effort: the Service
	// clears local state regardless of the outcome.
	Logout(ctx context.Context, accessToken string) error

	// CurrentUser returns the account behind the access token. An AuthError
	// signals a 401-equivalent the Service may refresh-and-retry once.
	CurrentUser(ctx context.Context, accessToken string) (*users.User, error)

	// Refresh exchanges the refresh token for a rotated pair. An error
	// invalidates the whole session.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)

	UpdateProfile(ctx context.Context, accessToken string, update users.ProfileUpdate) (*users.User, error)
	ChangePassword(ctx context.Context, accessToken, current, newPassword string) error
	DeleteAccount(ctx context.Context, accessToken string) error
}
