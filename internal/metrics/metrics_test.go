package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/meghraj-labs/auris/internal/domain"
)

func newTestRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	r, err := NewRecorder(mp)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	return r, reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestSnapshotCounts(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	r.RecordSuccess(ctx, "en", domain.LabelAIGenerated, 100*time.Millisecond)
	r.RecordSuccess(ctx, "en", domain.LabelHuman, 200*time.Millisecond)
	r.RecordSuccess(ctx, "ta", domain.LabelAIGenerated, 300*time.Millisecond)
	r.RecordFailure(ctx, domain.KindUnsupportedFormat)
	r.RecordRateLimited(ctx)
	r.RecordLedgerWriteFailure(ctx)

	snap := r.Snapshot()
	if snap.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want 5", snap.TotalRequests)
	}
	if snap.Successes != 3 || snap.Failures != 1 || snap.RateLimited != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.LedgerWriteFailures != 1 {
		t.Errorf("LedgerWriteFailures = %d, want 1", snap.LedgerWriteFailures)
	}
	if snap.ByLanguage["en"] != 2 || snap.ByLanguage["ta"] != 1 {
		t.Errorf("ByLanguage = %v", snap.ByLanguage)
	}
	if snap.ByLabel["AI_GENERATED"] != 2 || snap.ByLabel["HUMAN"] != 1 {
		t.Errorf("ByLabel = %v", snap.ByLabel)
	}
	if snap.AvgLatencyMS != 200 {
		t.Errorf("AvgLatencyMS = %v, want 200", snap.AvgLatencyMS)
	}
	if snap.SuccessRate != 0.6 {
		t.Errorf("SuccessRate = %v, want 0.6", snap.SuccessRate)
	}
}

func TestRateLimitedExcludedFromBuckets(t *testing.T) {
	r, _ := newTestRecorder(t)

	r.RecordRateLimited(context.Background())

	snap := r.Snapshot()
	if len(snap.ByLanguage) != 0 || len(snap.ByLabel) != 0 {
		t.Errorf("rejected request leaked into buckets: %v %v", snap.ByLanguage, snap.ByLabel)
	}
}

func TestInstrumentsRecorded(t *testing.T) {
	r, reader := newTestRecorder(t)
	ctx := context.Background()

	r.RecordSuccess(ctx, "en", domain.LabelAIGenerated, 50*time.Millisecond)
	r.RecordFailure(ctx, domain.KindClassifierFailure)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if findMetric(rm, "auris.detections") == nil {
		t.Error("auris.detections not recorded")
	}
	if findMetric(rm, "auris.detection.errors") == nil {
		t.Error("auris.detection.errors not recorded")
	}
	if findMetric(rm, "auris.detection.duration") == nil {
		t.Error("auris.detection.duration not recorded")
	}
}

func TestConcurrentRecording(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordSuccess(ctx, "en", domain.LabelHuman, time.Millisecond)
		}()
	}
	wg.Wait()

	if snap := r.Snapshot(); snap.Successes != n {
		t.Errorf("Successes = %d, want %d", snap.Successes, n)
	}
}
