package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/lunalabs/luna/internal/users"
	"github.com/lunalabs/luna/pkg/client"
)

// HTTPBackend talks to a real Luna identity API over the SDK client. It is
// interchangeable with MockBackend behind the IdentityBackend interface.
type HTTPBackend struct {
	api *client.Client
}

// NewHTTPBackend wraps an SDK client as an IdentityBackend.
func NewHTTPBackend(api *client.Client) *HTTPBackend {
	return &HTTPBackend{api: api}
}

// authResponse is the data payload of the login, register, social, and
// refresh endpoints.
type authResponse struct {
	User *users.User `json:"user"`
	TokenPair
}

// Register implements IdentityBackend.
func (b *HTTPBackend) Register(ctx context.Context, reg Registration) (*users.User, TokenPair, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, TokenPair{}, err
	}
	var resp authResponse
	if err := b.api.Post(ctx, "/api/v1/auth/register", reg, &resp); err != nil {
		return nil, TokenPair{}, translate(err)
	}
	return resp.User, resp.TokenPair, nil
}

// Login implements IdentityBackend.
func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*users.User, TokenPair, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := b.api.Post(ctx, "/api/v1/auth/login", payload, &resp); err != nil {
		return nil, TokenPair{}, translate(err)
	}
	return resp.User, resp.TokenPair, nil
}

// SocialLogin implements IdentityBackend.
func (b *HTTPBackend) SocialLogin(ctx context.Context, req SocialLogin) (*users.User, TokenPair, error) {
	var resp authResponse
	if err := b.api.Post(ctx, "/api/v1/auth/social", req, &resp); err != nil {
		return nil, TokenPair{}, translate(err)
	}
	return resp.User, resp.TokenPair, nil
}

// Logout implements IdentityBackend.
func (b *HTTPBackend) Logout(ctx context.Context, accessToken string) error {
	return translate(b.withToken(accessToken).Post(ctx, "/api/v1/auth/logout", nil, nil))
}

// CurrentUser implements IdentityBackend.
func (b *HTTPBackend) CurrentUser(ctx context.Context, accessToken string) (*users.User, error) {
	var u users.User
	if err := b.withToken(accessToken).Get(ctx, "/api/v1/auth/me", &u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Refresh implements IdentityBackend.
func (b *HTTPBackend) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload := map[string]string{"refreshToken": refreshToken}
	var pair TokenPair
	if err := b.api.Post(ctx, "/api/v1/auth/refresh", payload, &pair); err != nil {
		return TokenPair{}, translate(err)
	}
	return pair, nil
}

// UpdateProfile implements IdentityBackend.
func (b *HTTPBackend) UpdateProfile(ctx context.Context, accessToken string, update users.ProfileUpdate) (*users.User, error) {
	var u users.User
	err := b.withToken(accessToken).Do(ctx, http.MethodPut, "/api/v1/auth/profile", update, &u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ChangePassword implements IdentityBackend.
func (b *HTTPBackend) ChangePassword(ctx context.Context, accessToken, current, newPassword string) error {
	payload := map[string]string{
		"currentPassword": current,
		"newPassword":     newPassword,
	}
	return translate(b.withToken(accessToken).Post(ctx, "/api/v1/auth/password", payload, nil))
}

// DeleteAccount implements IdentityBackend.
func (b *HTTPBackend) DeleteAccount(ctx context.Context, accessToken string) error {
	return translate(b.withToken(accessToken).Do(ctx, http.MethodDelete, "/api/v1/auth/account", nil, nil))
}

// withToken returns a view of the SDK client carrying the given access token.
// The underlying client is shared so transport configuration stays in one
// place; only the token differs per call.
func (b *HTTPBackend) withToken(token string) *client.Client {
	b.api.SetAccessToken(token)
	return b.api
}

// translate converts SDK errors into the package's error kinds so callers
// never see transport-level detail.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return &AuthError{Message: apiErr.Message}
		case http.StatusConflict:
			return &ConflictError{Message: apiErr.Message}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return &ValidationError{Message: apiErr.Message}
		default:
			return &NetworkError{Message: "the dream realm is unreachable right now, please try again", Err: err}
		}
	}
	return &NetworkError{Message: "unable to reach the server, check your connection", Err: err}
}
