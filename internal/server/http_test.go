package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"topikai/internal/core"
)

func serveRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	fake := &fakePipeline{
		questionResp:   &core.QuestionAnalysis{Translation: "translated"},
		sentenceResp:   &core.SentenceAnalysis{Nuance: "casual"},
		transcriptResp: &core.Transcript{Language: "ko"},
	}
	s := New(fake, &Config{})

	tests := []struct {
		name     string
		method   string
		target   string
		body     string
		wantCode int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"question", http.MethodPost, "/v1/analysis/question", `{"question": "q", "options": ["a", "b"], "correctAnswerIndex": 0, "language": "en"}`, http.StatusOK},
		{"sentence", http.MethodPost, "/v1/analysis/sentence", `{"sentence": "s", "language": "en"}`, http.StatusOK},
		{"generate transcript", http.MethodPost, "/v1/transcripts", `{"episodeId": "ep-1", "audioUrl": "https://x/a.mp3", "language": "en"}`, http.StatusOK},
		{"get transcript", http.MethodGet, "/v1/transcripts/ep-1", "", http.StatusOK},
		{"delete transcript", http.MethodDelete, "/v1/transcripts/ep-1", "", http.StatusNoContent},
		{"unknown route", http.MethodGet, "/v1/unknown", "", http.StatusNotFound},
		{"metrics disabled by default", http.MethodGet, "/metrics", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveRequest(s, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("%s %s = %d, want %d (body: %s)", tt.method, tt.target, rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestServerHealthBody(t *testing.T) {
	s := New(&fakePipeline{}, nil)

	rec := serveRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "version") {
		t.Errorf("health body missing version: %s", rec.Body.String())
	}
}

func TestServerMetricsEnabled(t *testing.T) {
	s := New(&fakePipeline{}, &Config{MetricsEnabled: true})

	rec := serveRequest(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body should not be empty")
	}
}

func TestServerMetricsCustomEndpoint(t *testing.T) {
	s := New(&fakePipeline{}, &Config{MetricsEnabled: true, MetricsEndpoint: "/internal/metrics"})

	if rec := serveRequest(s, http.MethodGet, "/internal/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("custom endpoint = %d, want 200", rec.Code)
	}
	if rec := serveRequest(s, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("default endpoint = %d, want 404", rec.Code)
	}
}

func TestServerRequestID(t *testing.T) {
	s := New(&fakePipeline{}, &Config{})

	rec := serveRequest(s, http.MethodGet, "/health", "")
	id := rec.Header().Get("X-Request-Id")
	if !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-Id = %q, want generated req_ prefix", id)
	}
}

func TestServerRequestIDHonorsCaller(t *testing.T) {
	s := New(&fakePipeline{}, &Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-7")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-supplied-7" {
		t.Errorf("X-Request-Id = %q, want caller-supplied-7", got)
	}
}

func TestServerBodyLimit(t *testing.T) {
	s := New(&fakePipeline{questionResp: &core.QuestionAnalysis{}}, &Config{BodySizeLimit: 64})

	big := `{"question": "` + strings.Repeat("아", 200) + `", "options": ["a", "b"], "correctAnswerIndex": 0, "language": "en"}`
	rec := serveRequest(s, http.MethodPost, "/v1/analysis/question", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestServerErrorPassthrough(t *testing.T) {
	fake := &fakePipeline{err: core.NewModelInvocationError("model overloaded", nil)}
	s := New(fake, &Config{})

	rec := serveRequest(s, http.MethodPost, "/v1/analysis/sentence", `{"sentence": "s", "language": "en"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "model_invocation_error") {
		t.Errorf("body = %s, want model_invocation_error", rec.Body.String())
	}
}
