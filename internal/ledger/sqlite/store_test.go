package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meghraj-labs/auris/internal/domain"
	"github.com/meghraj-labs/auris/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func successRecord(lang string, label domain.Label, at time.Time) *ledger.Record {
	return &ledger.Record{
		ID:           uuid.New().String(),
		Language:     lang,
		Result:       label,
		Confidence:   0.9,
		ModelVersion: "heuristic",
		CallerID:     "caller-1",
		Outcome:      ledger.OutcomeSuccess,
		Latency:      42 * time.Millisecond,
		CreatedAt:    at,
	}
}

func TestAppendAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := s.Append(ctx, successRecord("en", domain.LabelAIGenerated, now)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := s.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Language != "en" || rec.Result != domain.LabelAIGenerated {
		t.Errorf("record = %+v", rec)
	}
	if rec.Confidence != 0.9 || rec.ModelVersion != "heuristic" {
		t.Errorf("record payload = %+v", rec)
	}
	if rec.Latency != 42*time.Millisecond {
		t.Errorf("latency = %s, want 42ms", rec.Latency)
	}
}

func TestFailureRecordHasNoResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, &ledger.Record{
		ID:        uuid.New().String(),
		Language:  "ta",
		CallerID:  "caller-2",
		Outcome:   ledger.OutcomeFailure,
		ErrorKind: domain.KindDurationOutOfRange,
		Latency:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := s.Query(ctx, ledger.Filter{Language: "ta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Result != "" {
		t.Errorf("failure record carries result %q", records[0].Result)
	}
	if records[0].ErrorKind != domain.KindDurationOutOfRange {
		t.Errorf("error kind = %q", records[0].ErrorKind)
	}
}

func TestQueryFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Append(ctx, successRecord("en", domain.LabelAIGenerated, base))
	s.Append(ctx, successRecord("en", domain.LabelHuman, base.Add(time.Hour)))
	s.Append(ctx, successRecord("ta", domain.LabelAIGenerated, base.Add(2*time.Hour)))

	byLang, err := s.Query(ctx, ledger.Filter{Language: "en"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byLang) != 2 {
		t.Errorf("language filter: got %d, want 2", len(byLang))
	}

	byResult, err := s.Query(ctx, ledger.Filter{Result: domain.LabelAIGenerated})
	if err != nil {
		t.Fatal(err)
	}
	if len(byResult) != 2 {
		t.Errorf("result filter: got %d, want 2", len(byResult))
	}

	byTime, err := s.Query(ctx, ledger.Filter{Since: base.Add(30 * time.Minute), Until: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTime) != 1 || byTime[0].Result != domain.LabelHuman {
		t.Errorf("time filter: got %d records", len(byTime))
	}

	// Newest first.
	all, err := s.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Language != "ta" {
		t.Errorf("ordering: first record language %q, want ta", all[0].Language)
	}

	limited, err := s.Query(ctx, ledger.Filter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Append(ctx, successRecord("en", domain.LabelHuman, time.Now().UTC()))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append: %v", err)
		}
	}

	records, err := s.Query(ctx, ledger.Filter{Limit: n + 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != n {
		t.Errorf("got %d records after %d concurrent appends", len(records), n)
	}
}
