package dreams

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FreeLimit is how many dreams a non-premium journal retains. Saving past
// the limit evicts the oldest entry.
const FreeLimit = 10

// JournalStore persists a journal's records between sessions.
type JournalStore interface {
	Load() ([]Record, error)
	Save([]Record) error
}

// Journal is a bounded, newest-first dream history. A zero limit means
// unlimited retention (premium accounts).
type Journal struct {
	mu      sync.RWMutex
	records []Record
	limit   int
	store   JournalStore
}

// NewJournal creates a journal with the given retention limit. Pass a
// non-nil store to persist records; pass limit 0 for unlimited retention.
func NewJournal(limit int, store JournalStore) (*Journal, error) {
	j := &Journal{limit: limit, store: store}
	if store != nil {
		records, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load journal: %w", err)
		}
		j.records = j.trim(records)
	}
	return j, nil
}

// Add records a dream at the head of the journal. Records past the retention
// limit are evicted from the tail (the oldest entries).
func (j *Journal) Add(rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = j.trim(append([]Record{rec}, j.records...))
	return j.persist()
}

// All returns the records newest-first. The returned slice is a copy.
func (j *Journal) All() []Record {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Record, len(j.records))
	copy(out, j.records)
	return out
}

// Len returns how many records the journal currently holds.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.records)
}

// Remove deletes the record with the given id. ErrNotFound when absent.
func (j *Journal) Remove(id uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, rec := range j.records {
		if rec.ID == id {
			j.records = append(j.records[:i:i], j.records[i+1:]...)
			return j.persist()
		}
	}
	return ErrNotFound
}

// Clear empties the journal.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = nil
	return j.persist()
}

func (j *Journal) trim(records []Record) []Record {
	if j.limit > 0 && len(records) > j.limit {
		return records[:j.limit]
	}
	return records
}

// persist is called with j.mu held.
func (j *Journal) persist() error {
	if j.store == nil {
		return nil
	}
	return j.store.Save(j.records)
}

// FileJournalStore keeps the journal as a JSON file, written atomically.
type FileJournalStore struct {
	path string
}

// NewFileJournalStore creates a store at path, creating parent directories.
func NewFileJournalStore(path string) (*FileJournalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	return &FileJournalStore{path: path}, nil
}

func (s *FileJournalStore) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode journal file: %w", err)
	}
	return records, nil
}

func (s *FileJournalStore) Save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return os.Rename(tmp, s.path)
}
