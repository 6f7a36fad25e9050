// Package pipeline orchestrates a detection attempt end to end: admission,
// audio validation, feature extraction, classification, calibration, and
// the ledger write.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/meghraj-labs/auris/internal/audio"
	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/domain"
	"github.com/meghraj-labs/auris/internal/features"
	"github.com/meghraj-labs/auris/internal/ledger"
	"github.com/meghraj-labs/auris/internal/metrics"
	"github.com/meghraj-labs/auris/internal/model"
	"github.com/meghraj-labs/auris/internal/ratelimit"
)

// Orchestrator runs the detection pipeline. It is safe for concurrent use
// and carries no per-request state.
type Orchestrator struct {
	validator *audio.Validator
	extractor *features.Extractor
	registry  *model.Registry
	limiter   ratelimit.Limiter
	store     ledger.Store
	recorder  *metrics.Recorder
	logger    *slog.Logger

	threshold          float64
	extractionTimeout  time.Duration
	ledgerWriteTimeout time.Duration
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Validator *audio.Validator
	Extractor *features.Extractor
	Registry  *model.Registry
	Limiter   ratelimit.Limiter
	Store     ledger.Store
	Recorder  *metrics.Recorder
	Logger    *slog.Logger

	Threshold          float64
	ExtractionTimeout  time.Duration
	LedgerWriteTimeout time.Duration
}

// NewOrchestrator creates an orchestrator from cfg.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		validator:          cfg.Validator,
		extractor:          cfg.Extractor,
		registry:           cfg.Registry,
		limiter:            cfg.Limiter,
		store:              cfg.Store,
		recorder:           cfg.Recorder,
		logger:             logger,
		threshold:          cfg.Threshold,
		extractionTimeout:  cfg.ExtractionTimeout,
		ledgerWriteTimeout: cfg.LedgerWriteTimeout,
	}
}

// FromAppConfig builds an orchestrator with the standard component stack.
func FromAppConfig(cfg *config.Config, store ledger.Store, recorder *metrics.Recorder, logger *slog.Logger) *Orchestrator {
	return NewOrchestrator(Config{
		Validator:          audio.NewValidator(cfg.Audio),
		Extractor:          features.NewExtractor(),
		Registry:           model.NewRegistry(cfg.Classifier, logger),
		Limiter:            ratelimit.NewMemory(cfg.RateLimit.Capacity, cfg.RateLimit.Window),
		Store:              store,
		Recorder:           recorder,
		Logger:             logger,
		Threshold:          cfg.Classifier.Threshold,
		ExtractionTimeout:  cfg.Audio.ExtractionTimeout,
		LedgerWriteTimeout: cfg.Ledger.WriteTimeout,
	})
}

// Limiter exposes the admission limiter for quota reporting.
func (o *Orchestrator) Limiter() ratelimit.Limiter { return o.limiter }

// Registry exposes the model registry for status reporting.
func (o *Orchestrator) Registry() *model.Registry { return o.registry }

// Detect runs one detection attempt. Every attempt, including rejected and
// failed ones, produces exactly one ledger record. The returned error, if
// any, is always a *domain.DetectionError.
func (o *Orchestrator) Detect(ctx context.Context, raw []byte, language, callerID string) (*domain.DetectionResult, error) {
	requestID := domain.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	start := time.Now()

	rec := &ledger.Record{
		ID:       requestID,
		Language: language,
		CallerID: callerID,
	}

	if !domain.IsSupportedLanguage(language) {
		err := domain.NewDetectionError(domain.KindUnsupportedLanguage,
			fmt.Sprintf("language %q is not supported", language))
		o.finishFailure(ctx, rec, err, time.Since(start))
		return nil, err
	}

	if !o.limiter.Admit(callerID) {
		err := domain.NewDetectionError(domain.KindRateLimited,
			"request quota exhausted for caller")
		rec.Outcome = ledger.OutcomeRateLimited
		rec.ErrorKind = domain.KindRateLimited
		rec.Latency = time.Since(start)
		o.recorder.RecordRateLimited(ctx)
		o.appendRecord(rec)
		return nil, err
	}

	result, err := o.classify(ctx, requestID, raw, language)
	if err != nil {
		o.finishFailure(ctx, rec, err, time.Since(start))
		return nil, err
	}

	result.Latency = time.Since(start)
	rec.Outcome = ledger.OutcomeSuccess
	rec.Result = result.Label
	rec.Confidence = result.Confidence
	rec.ModelVersion = result.ModelVersion
	rec.Latency = result.Latency
	o.recorder.RecordSuccess(ctx, language, result.Label, result.Latency)
	o.appendRecord(rec)

	o.logger.Info("detection complete",
		"request_id", requestID,
		"language", language,
		"result", result.Label,
		"confidence", result.Confidence,
		"model_version", result.ModelVersion,
		"latency_ms", result.Latency.Milliseconds())
	return result, nil
}

// classify runs the pipeline stages that follow admission.
func (o *Orchestrator) classify(ctx context.Context, requestID string, raw []byte, language string) (*domain.DetectionResult, error) {
	clip, err := o.validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	extractCtx, cancel := context.WithTimeout(ctx, o.extractionTimeout)
	defer cancel()
	vector, err := o.extractor.Extract(extractCtx, clip)
	if err != nil {
		// The extractor reports its own deadline as extraction_timeout;
		// a parent deadline hit here means the request budget is gone.
		if ctx.Err() != nil {
			return nil, domain.WrapDetectionError(domain.KindTimeout,
				"request deadline exceeded during feature extraction", err)
		}
		return nil, err
	}

	handle := o.registry.Resolve(language)
	rawScore, err := handle.Infer(vector)
	if err != nil {
		o.logger.Error("classifier inference failed",
			"request_id", requestID,
			"language", language,
			"model_version", handle.Version(),
			"error", err)
		return nil, domain.WrapDetectionError(domain.KindClassifierFailure,
			"classifier inference failed", err)
	}

	confidence := model.Calibrate(rawScore, handle)
	return &domain.DetectionResult{
		RequestID:    requestID,
		Label:        model.LabelFor(confidence, o.threshold),
		Confidence:   confidence,
		Language:     language,
		ModelVersion: handle.Version(),
		Timestamp:    time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) finishFailure(ctx context.Context, rec *ledger.Record, err error, latency time.Duration) {
	kind := domain.KindOf(err)
	rec.Outcome = ledger.OutcomeFailure
	rec.ErrorKind = kind
	rec.Latency = latency
	o.recorder.RecordFailure(ctx, kind)
	o.appendRecord(rec)

	o.logger.Warn("detection failed",
		"request_id", rec.ID,
		"language", rec.Language,
		"error_kind", kind,
		"error", err)
}

// appendRecord writes the attempt's ledger row. The write is best effort
// and detached from the request context so a cancelled request still gets
// its row; a failed write is logged and counted but never surfaces to the
// caller.
func (o *Orchestrator) appendRecord(rec *ledger.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), o.ledgerWriteTimeout)
	defer cancel()

	if err := o.store.Append(ctx, rec); err != nil {
		o.recorder.RecordLedgerWriteFailure(ctx)
		o.logger.Warn("ledger write failed",
			"request_id", rec.ID,
			"error", err)
	}
}
