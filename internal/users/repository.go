package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides CRUD operations for users against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt on the user.
func (r *Repository) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	providers, err := json.Marshal(u.SocialProviders)
	if err != nil {
		return fmt.Errorf("marshal social providers: %w", err)
	}

	q := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, email_verified,
			profile_picture, social_providers, notifications, share_insights,
			public_profile, plan, subscription_status, subscription_expires_at,
			total_dreams, streak_days, joined_at, last_login_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err = r.db.Exec(ctx, q,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.EmailVerified,
		u.ProfilePicture, providers, u.Preferences.Notifications, u.Preferences.ShareInsights,
		u.Preferences.PublicProfile, u.Subscription.Plan, u.Subscription.Status, u.Subscription.ExpiresAt,
		u.Stats.TotalDreams, u.Stats.StreakDays, u.Stats.JoinedAt, u.Stats.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `
	id, email, password_hash, first_name, last_name, email_verified,
	profile_picture, social_providers, notifications, share_insights,
	public_profile, plan, subscription_status, subscription_expires_at,
	total_dreams, streak_days, joined_at, last_login_at, created_at, updated_at`

// GetByID retrieves a user by their internal UUID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email. Emails are stored lowercased.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

// Update replaces the mutable columns of a user record.
func (r *Repository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()

	providers, err := json.Marshal(u.SocialProviders)
	if err != nil {
		return fmt.Errorf("marshal social providers: %w", err)
	}

	q := `
		UPDATE users SET
			email = $2, password_hash = $3, first_name = $4, last_name = $5,
			email_verified = $6, profile_picture = $7, social_providers = $8,
			notifications = $9, share_insights = $10, public_profile = $11,
			plan = $12, subscription_status = $13, subscription_expires_at = $14,
			total_dreams = $15, streak_days = $16, last_login_at = $17, updated_at = $18
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName,
		u.EmailVerified, u.ProfilePicture, providers,
		u.Preferences.Notifications, u.Preferences.ShareInsights, u.Preferences.PublicProfile,
		u.Subscription.Plan, u.Subscription.Status, u.Subscription.ExpiresAt,
		u.Stats.TotalDreams, u.Stats.StreakDays, u.Stats.LastLoginAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanOne executes a single-row query and scans the result into a User.
// Column order matches userColumns.
func (r *Repository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var u User
	var providers []byte
	if err := rows.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.EmailVerified,
		&u.ProfilePicture, &providers, &u.Preferences.Notifications, &u.Preferences.ShareInsights,
		&u.Preferences.PublicProfile, &u.Subscription.Plan, &u.Subscription.Status, &u.Subscription.ExpiresAt,
		&u.Stats.TotalDreams, &u.Stats.StreakDays, &u.Stats.JoinedAt, &u.Stats.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if len(providers) > 0 {
		if err := json.Unmarshal(providers, &u.SocialProviders); err != nil {
			return nil, fmt.Errorf("unmarshal social providers: %w", err)
		}
	}
	return &u, rows.Err()
}
