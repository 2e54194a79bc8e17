package core

import (
	"errors"
	"net/http"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PipelineError
		expected string
	}{
		{
			name:     "validation error",
			err:      NewValidationError("question must not be empty"),
			expected: "validation_error: question must not be empty",
		},
		{
			name:     "model invocation error",
			err:      NewModelInvocationError("call failed", errors.New("boom")),
			expected: "model_invocation_error: call failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	err := NewTranscodeError("ffmpeg exited non-zero", originalErr)

	if unwrapped := err.Unwrap(); unwrapped != originalErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, originalErr)
	}

	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should see through PipelineError")
	}
}

func TestPipelineError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *PipelineError
		expected int
	}{
		{
			name:     "validation",
			err:      NewValidationError("bad input"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "media fetch",
			err:      NewMediaFetchError("download failed", errors.New("connection reset")),
			expected: http.StatusBadGateway,
		},
		{
			name:     "payload too large",
			err:      NewMediaFetchError("audio exceeds limit", ErrPayloadTooLarge),
			expected: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "model invocation",
			err:      NewModelInvocationError("upstream 500", nil),
			expected: http.StatusBadGateway,
		},
		{
			name:     "malformed model response",
			err:      NewModelResponseError("not valid JSON", nil),
			expected: http.StatusBadGateway,
		},
		{
			name:     "transcode",
			err:      NewTranscodeError("ffmpeg failed", nil),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "cache backend",
			err:      NewCacheBackendError("redis down", nil),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPipelineError_ToJSON(t *testing.T) {
	err := NewMediaFetchError("download failed", nil)

	result := err.ToJSON()

	errorData, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatal("ToJSON() should return map with 'error' key")
	}

	if errorData["type"] != ErrorTypeMediaFetch {
		t.Errorf("ToJSON() type = %v, want %v", errorData["type"], ErrorTypeMediaFetch)
	}

	if errorData["message"] != "download failed" {
		t.Errorf("ToJSON() message = %v, want %v", errorData["message"], "download failed")
	}
}

func TestIsCacheBackend(t *testing.T) {
	cacheErr := NewCacheBackendError("s3 unreachable", errors.New("dial tcp"))
	if !IsCacheBackend(cacheErr) {
		t.Error("IsCacheBackend() should report true for cache backend errors")
	}

	wrapped := NewModelInvocationError("outer", cacheErr)
	if !IsCacheBackend(wrapped) {
		t.Error("IsCacheBackend() should see through wrapping")
	}

	if IsCacheBackend(NewValidationError("nope")) {
		t.Error("IsCacheBackend() should report false for other types")
	}

	if IsCacheBackend(errors.New("plain")) {
		t.Error("IsCacheBackend() should report false for foreign errors")
	}
}

func TestTypeOf(t *testing.T) {
	if got := TypeOf(NewTranscodeError("x", nil)); got != ErrorTypeTranscode {
		t.Errorf("TypeOf() = %v, want %v", got, ErrorTypeTranscode)
	}

	if got := TypeOf(errors.New("plain")); got != "" {
		t.Errorf("TypeOf() on foreign error = %v, want empty", got)
	}
}

func TestPipelineError_AsError(t *testing.T) {
	var err error = NewModelResponseError("truncated JSON", nil)

	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As should work with PipelineError")
	}

	if pe.Type != ErrorTypeModelResponse {
		t.Errorf("Type = %v, want %v", pe.Type, ErrorTypeModelResponse)
	}
}
