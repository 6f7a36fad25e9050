package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/meghraj-labs/auris/internal/domain"
	"github.com/meghraj-labs/auris/internal/ledger"
	"github.com/meghraj-labs/auris/internal/metrics"
	"github.com/meghraj-labs/auris/internal/pipeline"
)

// maxRequestBody bounds the raw HTTP body. Base64 inflates audio by 4/3,
// plus JSON framing; 4 MiB comfortably covers the 2 MiB audio cap.
const maxRequestBody = 4 * 1024 * 1024

type handlers struct {
	orchestrator      *pipeline.Orchestrator
	store             ledger.Store
	recorder          *metrics.Recorder
	rateLimitCapacity int
	logger            *slog.Logger
}

// detectRequest is the POST /v1/detect body.
type detectRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

func (h *handlers) detect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := GetCallerID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, domain.NewDetectionError(domain.KindSizeExceeded,
				"request body exceeds the maximum allowed size"))
			return
		}
		h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
			"request body is not valid JSON"))
		return
	}
	if req.AudioBase64 == "" {
		h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
			"audio_base64 is required"))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
			"audio_base64 is not valid base64"))
		return
	}

	// Language tags are matched case-insensitively; "EN" means "en".
	language := strings.ToLower(req.Language)

	result, err := h.orchestrator.Detect(ctx, raw, language, callerID)
	setRateLimitHeaders(w, h.rateLimitCapacity, h.orchestrator.Limiter().Remaining(callerID))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	AddLogField(ctx, "result", string(result.Label))
	writeJSON(w, http.StatusOK, result)
}

// detectionRecord is the wire shape of one history row.
type detectionRecord struct {
	ID           string    `json:"id"`
	Language     string    `json:"language"`
	Result       string    `json:"result,omitempty"`
	Confidence   *float64  `json:"confidence,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *handlers) detections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := ledger.Filter{
		Language: q.Get("language"),
		Result:   domain.Label(q.Get("result")),
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
				"since must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = ts
	}
	if v := q.Get("until"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
				"until must be an RFC 3339 timestamp"))
			return
		}
		filter.Until = ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, r, domain.NewDetectionError(domain.KindInvalidEncoding,
				"limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}

	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("ledger query failed", "error", err)
		h.writeError(w, r, domain.WrapDetectionError(domain.KindStorageUnavailable,
			"detection history unavailable", err))
		return
	}

	out := make([]detectionRecord, 0, len(records))
	for _, rec := range records {
		row := detectionRecord{
			ID:           rec.ID,
			Language:     rec.Language,
			ModelVersion: rec.ModelVersion,
			Outcome:      string(rec.Outcome),
			ErrorKind:    string(rec.ErrorKind),
			LatencyMS:    rec.Latency.Milliseconds(),
			CreatedAt:    rec.CreatedAt,
		}
		if rec.Outcome == ledger.OutcomeSuccess {
			row.Result = string(rec.Result)
			conf := rec.Confidence
			row.Confidence = &conf
		}
		out = append(out, row)
	}

	writeJSON(w, http.StatusOK, map[string]any{"detections": out})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	languages := make([]string, 0, len(domain.SupportedLanguages))
	for lang := range domain.SupportedLanguages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	writeJSON(w, http.StatusOK, map[string]any{
		"counters":            h.recorder.Snapshot(),
		"models":              h.orchestrator.Registry().Versions(),
		"supported_languages": languages,
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the wire shape of every non-2xx detection response.
type errorResponse struct {
	Error struct {
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	var derr *domain.DetectionError
	if !errors.As(err, &derr) {
		derr = domain.WrapDetectionError(domain.KindClassifierFailure, "internal error", err)
	}

	var resp errorResponse
	resp.Error.Kind = string(derr.Kind)
	resp.Error.Message = derr.Message
	resp.Error.Retryable = derr.Retryable()
	resp.RequestID = GetRequestID(r.Context())

	writeJSON(w, derr.HTTPStatus(), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
