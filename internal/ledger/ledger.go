// Package ledger defines the durable detection-history store. The Store
// interface keeps the orchestrator independent of the backend so the
// SQLite store can be swapped for an in-memory one in tests, or a shared
// database in a multi-instance deployment.
package ledger

import (
	"context"
	"time"

	"github.com/meghraj-labs/auris/internal/domain"
)

// Outcome classifies a completed detection attempt.
type Outcome string

const (
	// OutcomeSuccess means a verdict was produced and returned.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure means the pipeline failed with a terminal error.
	OutcomeFailure Outcome = "failure"

	// OutcomeRateLimited means the request was rejected at admission and
	// never reached classification.
	OutcomeRateLimited Outcome = "rate_limited"
)

// Record is one immutable row of detection history. Result and Confidence
// are only meaningful for successful attempts.
type Record struct {
	ID           string
	Language     string
	Result       domain.Label
	Confidence   float64
	ModelVersion string
	CallerID     string
	Outcome      Outcome
	ErrorKind    domain.ErrorKind
	Latency      time.Duration
	CreatedAt    time.Time
}

// Filter selects records for operational inspection. Zero values match
// everything.
type Filter struct {
	Language string
	Result   domain.Label
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Store is an append-only history of detection attempts.
type Store interface {
	// Append writes one record. The context bounds the write; a failure
	// must not corrupt previously written rows.
	Append(ctx context.Context, rec *Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]*Record, error)

	Close() error
}
