package dreams

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a dream lookup matches nothing the user owns.
var ErrNotFound = errors.New("dream not found")

// Store is the server-side per-user dream history.
type Store interface {
	// Add records a dream.
	Add(ctx context.Context, rec Record) error
	// ListByUser returns a user's dreams newest-first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
	// Delete removes one of the user's dreams. ErrNotFound if the user owns
	// no dream with that id.
	Delete(ctx context.Context, userID, dreamID uuid.UUID) error
	// EvictBeyond deletes a user's oldest dreams past the given count.
	EvictBeyond(ctx context.Context, userID uuid.UUID, limit int) error
	// DeleteByUser removes all of a user's dreams.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[uuid.UUID][]Record)}
}

func (s *MemoryStore) Add(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]Record{rec}, s.byUser[rec.UserID]...)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	s.byUser[rec.UserID] = records
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.byUser[userID]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, dreamID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.byUser[userID]
	for i, rec := range records {
		if rec.ID == dreamID {
			s.byUser[userID] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) EvictBeyond(_ context.Context, userID uuid.UUID, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if records := s.byUser[userID]; limit > 0 && len(records) > limit {
		s.byUser[userID] = records[:limit]
	}
	return nil
}

func (s *MemoryStore) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	delete(s.byUser, userID)
	s.mu.Unlock()
	return nil
}

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Repository over the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Add(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO dreams (
			id, user_id, dream_text, interpretation, timestamp,
			tags, sentiment, mood, clarity, themes, symbols
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.DreamText, rec.Interpretation, rec.Timestamp,
		rec.Tags, rec.Sentiment, rec.Mood, rec.Clarity, rec.Themes, rec.Symbols,
	)
	if err != nil {
		return fmt.Errorf("insert dream: %w", err)
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	query := `
		SELECT id, user_id, dream_text, interpretation, timestamp,
		       tags, sentiment, mood, clarity, themes, symbols
		FROM dreams
		WHERE user_id = $1
		ORDER BY timestamp DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query dreams: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanDream(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, userID, dreamID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM dreams WHERE user_id = $1 AND id = $2`, userID, dreamID)
	if err != nil {
		return fmt.Errorf("delete dream: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) EvictBeyond(ctx context.Context, userID uuid.UUID, limit int) error {
	if limit <= 0 {
		return nil
	}
	query := `
		DELETE FROM dreams
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM dreams
			WHERE user_id = $1
			ORDER BY timestamp DESC
			LIMIT $2
		)`
	if _, err := r.pool.Exec(ctx, query, userID, limit); err != nil {
		return fmt.Errorf("evict dreams: %w", err)
	}
	return nil
}

func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM dreams WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete dreams: %w", err)
	}
	return nil
}

func scanDream(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.DreamText, &rec.Interpretation, &rec.Timestamp,
		&rec.Tags, &rec.Sentiment, &rec.Mood, &rec.Clarity, &rec.Themes, &rec.Symbols,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan dream: %w", err)
	}
	return rec, nil
}
