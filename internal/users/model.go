package users

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the subscription plan for a Luna account.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanPro     Plan = "pro"
)

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusInactive  SubscriptionStatus = "inactive"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// SocialIdentity links a user to an external sign-in provider.
type SocialIdentity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Preferences are the user-controlled privacy and notification flags.
type Preferences struct {
	Notifications bool `json:"notifications"`
	ShareInsights bool `json:"shareInsights"`
	PublicProfile bool `json:"publicProfile"`
}

// Subscription describes the user's plan and its billing state.
type Subscription struct {
	Plan      Plan               `json:"plan"`
	Status    SubscriptionStatus `json:"status"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}

// Stats carries cumulative usage counters for the account.
type Stats struct {
	TotalDreams int        `json:"totalDreams"`
	StreakDays  int        `json:"streakDays"`
	JoinedAt    time.Time  `json:"joinedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// User is a Luna account holder. Email is unique across the directory
// (case-insensitive); ID is immutable once assigned.
type User struct {
	ID              uuid.UUID                 `json:"id"`
	Email           string                    `json:"email"`
	PasswordHash    string                    `json:"-"`
	FirstName       string                    `json:"firstName"`
	LastName        string                    `json:"lastName"`
	EmailVerified   bool                      `json:"isEmailVerified"`
	ProfilePicture  string                    `json:"profilePicture,omitempty"`
	SocialProviders map[string]SocialIdentity `json:"socialProviders,omitempty"`
	Preferences     Preferences               `json:"preferences"`
	Subscription    Subscription              `json:"subscription"`
	Stats           Stats                     `json:"stats"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}

// DefaultPreferences are applied to every new account.
func DefaultPreferences() Preferences {
	return Preferences{Notifications: true, ShareInsights: false, PublicProfile: false}
}

// FreeSubscription is the subscription every new account starts on.
func FreeSubscription() Subscription {
	return Subscription{Plan: PlanFree, Status: StatusActive}
}

// Premium reports whether the account's plan lifts the free-tier journal cap.
func (u *User) Premium() bool {
	return u.Subscription.Plan == PlanPremium || u.Subscription.Plan == PlanPro
}

// LinkProvider records (or refreshes) a social provider identity on the user.
func (u *User) LinkProvider(provider string, identity SocialIdentity) {
	if u.SocialProviders == nil {
		u.SocialProviders = make(map[string]SocialIdentity)
	}
	u.SocialProviders[provider] = identity
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName      *string      `json:"firstName,omitempty"`
	LastName       *string      `json:"lastName,omitempty"`
	ProfilePicture *string      `json:"profilePicture,omitempty"`
	Preferences    *Preferences `json:"preferences,omitempty"`
}

// Apply merges the update into the user and bumps UpdatedAt.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
	u.UpdatedAt = time.Now().UTC()
}
