// Package memory is an in-memory ledger implementation for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meghraj-labs/auris/internal/ledger"
)

// Store keeps detection records in a slice guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	records []*ledger.Record

	// FailWrites makes Append return an error, for exercising the
	// best-effort write path.
	FailWrites bool

	// FailReads makes Query return an error, for exercising the history
	// read-failure path.
	FailReads bool
}

var _ ledger.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Append stores a copy of rec.
func (s *Store) Append(_ context.Context, rec *ledger.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return context.DeadlineExceeded
	}

	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, &cp)
	return nil
}

// Query filters records, newest first.
func (s *Store) Query(_ context.Context, f ledger.Filter) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReads {
		return nil, context.DeadlineExceeded
	}

	var out []*ledger.Record
	for _, rec := range s.records {
		if f.Language != "" && rec.Language != f.Language {
			continue
		}
		if f.Result != "" && rec.Result != f.Result {
			continue
		}
		if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && rec.CreatedAt.After(f.Until) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Close implements ledger.Store.
func (s *Store) Close() error { return nil }
