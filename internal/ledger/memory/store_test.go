package memory

import (
	"context"
	"testing"
	"time"

	"github.com/meghraj-labs/auris/internal/domain"
	"github.com/meghraj-labs/auris/internal/ledger"
)

func TestAppendAndQuery(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.Append(ctx, &ledger.Record{ID: "a", Language: "en", Result: domain.LabelAIGenerated, Outcome: ledger.OutcomeSuccess, CreatedAt: base})
	s.Append(ctx, &ledger.Record{ID: "b", Language: "ta", Result: domain.LabelHuman, Outcome: ledger.OutcomeSuccess, CreatedAt: base.Add(time.Hour)})

	all, err := s.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != "b" {
		t.Fatalf("got %d records, first %q; want 2 records newest first", len(all), all[0].ID)
	}

	byLang, _ := s.Query(ctx, ledger.Filter{Language: "ta"})
	if len(byLang) != 1 || byLang[0].ID != "b" {
		t.Errorf("language filter returned %d records", len(byLang))
	}

	byResult, _ := s.Query(ctx, ledger.Filter{Result: domain.LabelAIGenerated})
	if len(byResult) != 1 || byResult[0].ID != "a" {
		t.Errorf("result filter returned %d records", len(byResult))
	}
}

func TestQueryReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Append(ctx, &ledger.Record{ID: "a", Language: "en", Outcome: ledger.OutcomeSuccess})

	out, _ := s.Query(ctx, ledger.Filter{})
	out[0].Language = "mutated"

	again, _ := s.Query(ctx, ledger.Filter{})
	if again[0].Language != "en" {
		t.Errorf("stored record was mutated through a query result")
	}
}

func TestFailWrites(t *testing.T) {
	s := New()
	s.FailWrites = true

	err := s.Append(context.Background(), &ledger.Record{ID: "a", Outcome: ledger.OutcomeFailure})
	if err == nil {
		t.Fatal("expected error with FailWrites set")
	}
	if s.Len() != 0 {
		t.Errorf("failed write still stored a record")
	}
}
