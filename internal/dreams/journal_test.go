package dreams_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lunalabs/luna/internal/dreams"
)

func TestJournalEvictsOldestPastLimit(t *testing.T) {
	journal, err := dreams.NewJournal(dreams.FreeLimit, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}

	base := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		err := journal.Add(dreams.Record{
			DreamText: fmt.Sprintf("dream %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	records := journal.All()
	if len(records) != dreams.FreeLimit {
		t.Fatalf("len = %d, want %d", len(records), dreams.FreeLimit)
	}
	if records[0].DreamText != "dream 10" {
		t.Errorf("head = %q, want newest dream 10", records[0].DreamText)
	}
	if records[len(records)-1].DreamText != "dream 1" {
		t.Errorf("tail = %q, want dream 1 (dream 0 evicted)", records[len(records)-1].DreamText)
	}
}

func TestJournalUnlimitedWhenNoLimit(t *testing.T) {
	journal, err := dreams.NewJournal(0, nil)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	for i := 0; i < 25; i++ {
		if err := journal.Add(dreams.Record{DreamText: fmt.Sprintf("dream %d", i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if journal.Len() != 25 {
		t.Errorf("Len = %d, want 25", journal.Len())
	}
}

func TestJournalAssignsIDAndTimestamp(t *testing.T) {
	journal, _ := dreams.NewJournal(0, nil)
	if err := journal.Add(dreams.Record{DreamText: "flying"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	rec := journal.All()[0]
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Errorf("ID not assigned")
	}
	if rec.Timestamp.IsZero() {
		t.Errorf("Timestamp not assigned")
	}
}

func TestJournalRemove(t *testing.T) {
	journal, _ := dreams.NewJournal(0, nil)
	for i := 0; i < 3; i++ {
		if err := journal.Add(dreams.Record{DreamText: fmt.Sprintf("dream %d", i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	target := journal.All()[1]
	if err := journal.Remove(target.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if journal.Len() != 2 {
		t.Fatalf("Len after remove = %d, want 2", journal.Len())
	}
	for _, rec := range journal.All() {
		if rec.ID == target.ID {
			t.Errorf("removed record still present")
		}
	}
	if err := journal.Remove(target.ID); !errors.Is(err, dreams.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}

	if err := journal.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if journal.Len() != 0 {
		t.Errorf("Len after clear = %d, want 0", journal.Len())
	}
}

func TestJournalPersistsThroughFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreams.json")
	store, err := dreams.NewFileJournalStore(path)
	if err != nil {
		t.Fatalf("NewFileJournalStore: %v", err)
	}

	journal, err := dreams.NewJournal(dreams.FreeLimit, store)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	clarity := 7.0
	if err := journal.Add(dreams.Record{
		DreamText:      "swimming in a calm sea",
		Interpretation: "water mirrors emotion",
		Sentiment:      dreams.SentimentNeutral,
		Clarity:        &clarity,
		Tags:           []string{"water"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := dreams.NewJournal(dreams.FreeLimit, store)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	records := reopened.All()
	if len(records) != 1 {
		t.Fatalf("reopened len = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.DreamText != "swimming in a calm sea" || rec.Sentiment != dreams.SentimentNeutral {
		t.Errorf("record did not round-trip: %+v", rec)
	}
	if rec.Clarity == nil || *rec.Clarity != 7.0 {
		t.Errorf("clarity did not round-trip: %v", rec.Clarity)
	}
}

func TestLength(t *testing.T) {
	rec := dreams.Record{DreamText: "flying"}
	if got := rec.Length(); got != 6 {
		t.Errorf("Length = %d, want 6", got)
	}
	if got := (dreams.Record{DreamText: "rêve"}).Length(); got != 4 {
		t.Errorf("multibyte Length = %d, want 4 characters", got)
	}
	if got := (dreams.Record{}).Length(); got != 0 {
		t.Errorf("empty Length = %d, want 0", got)
	}
}
