package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes terminal pipeline failures. Every failed detection
// attempt carries exactly one kind.
type ErrorKind string

const (
	// KindInvalidEncoding indicates the payload was not valid base64.
	KindInvalidEncoding ErrorKind = "invalid_encoding"

	// KindUnsupportedFormat indicates the bytes could not be decoded into
	// a waveform by any supported codec.
	KindUnsupportedFormat ErrorKind = "unsupported_format"

	// KindSizeExceeded indicates the payload is outside the configured
	// byte-size bounds.
	KindSizeExceeded ErrorKind = "size_exceeded"

	// KindDurationOutOfRange indicates the decoded clip is shorter or
	// longer than the configured duration bounds.
	KindDurationOutOfRange ErrorKind = "duration_out_of_range"

	// KindUnsupportedLanguage indicates a language tag outside the
	// supported set.
	KindUnsupportedLanguage ErrorKind = "unsupported_language"

	// KindExtractionTimeout indicates feature extraction exceeded its
	// time budget. The caller may resubmit.
	KindExtractionTimeout ErrorKind = "extraction_timeout"

	// KindClassifierFailure indicates an internal inconsistency between
	// the feature vector and the resolved model. Configuration defect,
	// not bad input.
	KindClassifierFailure ErrorKind = "classifier_failure"

	// KindRateLimited indicates the caller exceeded its admission quota.
	KindRateLimited ErrorKind = "rate_limited"

	// KindTimeout indicates the overall per-request budget elapsed.
	KindTimeout ErrorKind = "timeout"

	// KindStorageUnavailable indicates the detection ledger could not
	// serve a read. Operational fault, not a pipeline failure.
	KindStorageUnavailable ErrorKind = "storage_unavailable"
)

// DetectionError is the canonical terminal error for a detection attempt.
type DetectionError struct {
	Kind    ErrorKind
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DetectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *DetectionError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may usefully resubmit the same clip.
func (e *DetectionError) Retryable() bool {
	switch e.Kind {
	case KindExtractionTimeout, KindRateLimited, KindTimeout, KindStorageUnavailable:
		return true
	}
	return false
}

// HTTPStatus maps the error kind to a transport status code.
func (e *DetectionError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidEncoding, KindUnsupportedFormat, KindSizeExceeded,
		KindDurationOutOfRange, KindUnsupportedLanguage:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindExtractionTimeout, KindTimeout:
		return http.StatusGatewayTimeout
	case KindClassifierFailure:
		return http.StatusInternalServerError
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewDetectionError creates an error of the given kind.
func NewDetectionError(kind ErrorKind, message string) *DetectionError {
	return &DetectionError{Kind: kind, Message: message}
}

// WrapDetectionError creates an error of the given kind with a cause.
func WrapDetectionError(kind ErrorKind, message string, err error) *DetectionError {
	return &DetectionError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, or "" if err is not a DetectionError.
func KindOf(err error) ErrorKind {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DetectionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
