// Package metrics tracks detection-pipeline counters. Counts are recorded
// twice: through OpenTelemetry instruments for Prometheus scraping, and in
// a mutex-guarded mirror that backs the stats endpoint, since the OTel API
// offers no way to read instrument values back.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/meghraj-labs/auris/internal/domain"
)

const meterName = "github.com/meghraj-labs/auris"

// latencyBuckets are histogram bounds in seconds, sized for audio decode
// plus feature extraction on clips up to 30 seconds.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// Snapshot is a point-in-time view of the pipeline counters.
type Snapshot struct {
	TotalRequests       int64            `json:"total_requests"`
	Successes           int64            `json:"successes"`
	Failures            int64            `json:"failures"`
	RateLimited         int64            `json:"rate_limited"`
	LedgerWriteFailures int64            `json:"ledger_write_failures"`
	SuccessRate         float64          `json:"success_rate"`
	ByLanguage          map[string]int64 `json:"by_language"`
	ByLabel             map[string]int64 `json:"by_label"`
	AvgLatencyMS        float64          `json:"avg_latency_ms"`
	UptimeSeconds       float64          `json:"uptime_seconds"`
}

// Recorder accumulates pipeline counters. All methods are safe for
// concurrent use.
type Recorder struct {
	mu                  sync.Mutex
	totalRequests       int64
	successes           int64
	failures            int64
	rateLimited         int64
	ledgerWriteFailures int64
	byLanguage          map[string]int64
	byLabel             map[string]int64
	latencySum          time.Duration
	start               time.Time

	detections       metric.Int64Counter
	detectionErrors  metric.Int64Counter
	rejections       metric.Int64Counter
	ledgerFailures   metric.Int64Counter
	detectionLatency metric.Float64Histogram
}

// NewRecorder builds a Recorder with instruments registered on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(meterName)
	r := &Recorder{
		byLanguage: make(map[string]int64),
		byLabel:    make(map[string]int64),
		start:      time.Now(),
	}

	var err error
	if r.detections, err = m.Int64Counter("auris.detections",
		metric.WithDescription("Completed detection verdicts by language and result."),
	); err != nil {
		return nil, err
	}
	if r.detectionErrors, err = m.Int64Counter("auris.detection.errors",
		metric.WithDescription("Failed detection attempts by error kind."),
	); err != nil {
		return nil, err
	}
	if r.rejections, err = m.Int64Counter("auris.ratelimit.rejections",
		metric.WithDescription("Requests rejected at admission."),
	); err != nil {
		return nil, err
	}
	if r.ledgerFailures, err = m.Int64Counter("auris.ledger.write_failures",
		metric.WithDescription("Best-effort ledger writes that failed."),
	); err != nil {
		return nil, err
	}
	if r.detectionLatency, err = m.Float64Histogram("auris.detection.duration",
		metric.WithDescription("End-to-end detection latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return r, nil
}

// RecordSuccess counts one completed verdict.
func (r *Recorder) RecordSuccess(ctx context.Context, language string, label domain.Label, latency time.Duration) {
	r.detections.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("language", language),
			attribute.String("result", string(label)),
		))
	r.detectionLatency.Record(ctx, latency.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRequests++
	r.successes++
	r.byLanguage[language]++
	r.byLabel[string(label)]++
	r.latencySum += latency
}

// RecordFailure counts one terminal pipeline error.
func (r *Recorder) RecordFailure(ctx context.Context, kind domain.ErrorKind) {
	r.detectionErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", string(kind))))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRequests++
	r.failures++
}

// RecordRateLimited counts one admission rejection. Rejected requests never
// reach classification, so they contribute to no language or label bucket.
func (r *Recorder) RecordRateLimited(ctx context.Context) {
	r.rejections.Add(ctx, 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRequests++
	r.rateLimited++
}

// RecordLedgerWriteFailure counts one dropped history row.
func (r *Recorder) RecordLedgerWriteFailure(ctx context.Context) {
	r.ledgerFailures.Add(ctx, 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgerWriteFailures++
}

// Snapshot copies the current counters. Average latency covers successful
// detections only.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       r.totalRequests,
		Successes:           r.successes,
		Failures:            r.failures,
		RateLimited:         r.rateLimited,
		LedgerWriteFailures: r.ledgerWriteFailures,
		ByLanguage:          make(map[string]int64, len(r.byLanguage)),
		ByLabel:             make(map[string]int64, len(r.byLabel)),
		UptimeSeconds:       time.Since(r.start).Seconds(),
	}
	for k, v := range r.byLanguage {
		snap.ByLanguage[k] = v
	}
	for k, v := range r.byLabel {
		snap.ByLabel[k] = v
	}
	if r.successes > 0 {
		snap.AvgLatencyMS = float64(r.latencySum.Milliseconds()) / float64(r.successes)
	}
	if r.totalRequests > 0 {
		snap.SuccessRate = float64(r.successes) / float64(r.totalRequests)
	}
	return snap
}
