package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails. The same error covers
// unknown emails and wrong passwords so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrProfileIncomplete is returned when a social login would create an
// account but the name fields a new account requires are missing.
var ErrProfileIncomplete = errors.New("first and last name are required for new accounts")

// userRepo is the storage interface consumed by Service.
// Satisfied by *Directory and *Repository.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements account management against a user store. Input shape
// validation (email format, password policy) happens at the API boundary;
// the service enforces uniqueness and credential checks.
type Service struct {
	repo   userRepo
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(repo userRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates a new account with default preferences, a free
// subscription, and zeroed usage stats. Returns ErrDuplicateEmail if the
// email is already registered.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Preferences:  DefaultPreferences(),
		Subscription: FreeSubscription(),
		Stats:        Stats{JoinedAt: time.Now().UTC()},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("account registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// Login verifies email/password credentials, stamps last-login, and returns
// the user. Returns ErrInvalidCredentials on any mismatch.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if u.PasswordHash == "" {
		// Social-only account: no password to check against.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLogin(ctx, u)
	return u, nil
}

// SocialLogin links a provider identity to the account with the given email,
// or creates a new pre-verified account when none exists. Returns the user
// and true if a new account was created.
func (s *Service) SocialLogin(ctx context.Context, provider, providerID, email, firstName, lastName, profilePicture string) (*User, bool, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		u.LinkProvider(provider, SocialIdentity{
			ID:          providerID,
			Email:       email,
			ConnectedAt: time.Now().UTC(),
		})
		if profilePicture != "" {
			u.ProfilePicture = profilePicture
		}
		s.touchLogin(ctx, u)
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup by email: %w", err)
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return nil, false, ErrProfileIncomplete
	}

	now := time.Now().UTC()
	u = &User{
		Email:          strings.ToLower(strings.TrimSpace(email)),
		FirstName:      strings.TrimSpace(firstName),
		LastName:       strings.TrimSpace(lastName),
		EmailVerified:  true, // provider already verified the address
		ProfilePicture: profilePicture,
		Preferences:    DefaultPreferences(),
		Subscription:   FreeSubscription(),
		Stats:          Stats{JoinedAt: now, LastLoginAt: &now},
	}
	u.LinkProvider(provider, SocialIdentity{ID: providerID, Email: email, ConnectedAt: now})
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, false, fmt.Errorf("create social user: %w", err)
	}

	s.logger.Info("social account created",
		zap.String("user_id", u.ID.String()),
		zap.String("provider", provider),
	)
	return u, true, nil
}

// GetByID retrieves a user by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile merges the partial update into the stored user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update.Apply(u)
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// ChangePassword verifies the current password and stores a hash of the new
// one. Password policy checks happen at the API boundary.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, newPassword string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
			return ErrInvalidCredentials
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.logger.Info("password changed", zap.String("user_id", id.String()))
	return nil
}

// Delete removes the account from the directory.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("user_id", id.String()))
	return nil
}

// SetSubscription replaces the account's subscription.
func (s *Service) SetSubscription(ctx context.Context, id uuid.UUID, sub Subscription) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Subscription = sub
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	s.logger.Info("subscription updated",
		zap.String("user_id", id.String()),
		zap.String("plan", string(sub.Plan)),
	)
	return u, nil
}

// RecordDream bumps the account's total-dreams counter.
func (s *Service) RecordDream(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Stats.TotalDreams++
	return s.repo.Update(ctx, u)
}

// touchLogin stamps last-login on the user, best-effort.
func (s *Service) touchLogin(ctx context.Context, u *User) {
	now := time.Now().UTC()
	u.Stats.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Warn("update last login", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}
