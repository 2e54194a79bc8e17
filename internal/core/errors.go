// Package core provides the shared types and error taxonomy for the AI pipeline.
package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a pipeline failure.
type ErrorType string

const (
	// ErrorTypeValidation indicates malformed caller input. Fatal, never cached.
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeMediaFetch indicates a media download failed or exceeded the size cap.
	ErrorTypeMediaFetch ErrorType = "media_fetch_error"
	// ErrorTypeTranscode indicates the audio transcode step failed.
	ErrorTypeTranscode ErrorType = "transcode_error"
	// ErrorTypeModelInvocation indicates the remote model call failed.
	ErrorTypeModelInvocation ErrorType = "model_invocation_error"
	// ErrorTypeModelResponse indicates the model returned output that does not
	// parse or conform to the expected result shape. Never cached.
	ErrorTypeModelResponse ErrorType = "model_response_malformed"
	// ErrorTypeCacheBackend indicates an L1/L2 cache failure. Always non-fatal:
	// callers log it and proceed as if on a miss.
	ErrorTypeCacheBackend ErrorType = "cache_backend_error"
)

// ErrPayloadTooLarge marks a media download aborted for crossing the size cap.
// Wrapped inside a media-fetch PipelineError; test with errors.Is.
var ErrPayloadTooLarge = errors.New("payload too large")

// PipelineError is the error type surfaced by every pipeline component.
type PipelineError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps the error type to an HTTP status for the API surface.
func (e *PipelineError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeMediaFetch:
		if errors.Is(e.Err, ErrPayloadTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadGateway
	case ErrorTypeModelInvocation, ErrorTypeModelResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map for HTTP responses.
func (e *PipelineError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewValidationError creates a validation error for malformed caller input.
func NewValidationError(message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewMediaFetchError creates an error for a failed or oversized media download.
func NewMediaFetchError(message string, err error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeMediaFetch,
		Message: message,
		Err:     err,
	}
}

// NewTranscodeError creates an error for a failed audio transcode.
func NewTranscodeError(message string, err error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeTranscode,
		Message: message,
		Err:     err,
	}
}

// NewModelInvocationError creates an error for a failed remote model call.
func NewModelInvocationError(message string, err error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeModelInvocation,
		Message: message,
		Err:     err,
	}
}

// NewModelResponseError creates an error for unparseable or malformed model output.
func NewModelResponseError(message string, err error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeModelResponse,
		Message: message,
		Err:     err,
	}
}

// NewCacheBackendError creates a soft cache-layer error.
func NewCacheBackendError(message string, err error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeCacheBackend,
		Message: message,
		Err:     err,
	}
}

// IsCacheBackend reports whether err is a cache-layer failure, which the
// orchestrator swallows (logs) instead of propagating.
func IsCacheBackend(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Type == ErrorTypeCacheBackend
}

// TypeOf returns the ErrorType of err, or an empty string for foreign errors.
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}
