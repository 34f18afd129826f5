package storage

import (
	"testing"
	"time"

	"github.com/samvad-hq/campaign-mirror/internal/domain"
)

func TestBoltJournalRecordsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	raw, err := openBolt(dir+"/journal.db", normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	j := raw.(*boltJournal)
	defer j.Close()

	base := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	for i, outcome := range []domain.Outcome{domain.OutcomePublished, domain.OutcomeSkipped, domain.OutcomeFailed} {
		rec := domain.RunRecord{
			RunID:     string(rune('a' + i)),
			Outcome:   outcome,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := j.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Outcome != domain.OutcomeFailed || recent[1].Outcome != domain.OutcomeSkipped {
		t.Fatalf("unexpected order %#v", recent)
	}

	all, err := j.Recent(0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all 3 records, got %d err=%v", len(all), err)
	}
}

func TestBoltJournalExpiresRecords(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		RecordTTL:       1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	raw, err := openBolt(dir+"/journal.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	j := raw.(*boltJournal)
	defer j.Close()

	if err := j.Record(domain.RunRecord{RunID: "old", Outcome: domain.OutcomeSkipped, StartedAt: time.Now()}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	j.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	if err := j.maybeCleanupExpired(time.Now().Add(time.Second)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	recent, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected expired record to be removed, got %#v", recent)
	}
}

func TestNewJournalSupportsNoop(t *testing.T) {
	j, err := NewJournal("none", "", Options{})
	if err != nil {
		t.Fatalf("NewJournal none: %v", err)
	}
	if err := j.Record(domain.RunRecord{RunID: "x"}); err != nil {
		t.Fatalf("noop journal Record: %v", err)
	}
}

func TestNewJournalRejectsUnknownType(t *testing.T) {
	if _, err := NewJournal("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported journal type")
	}
}
