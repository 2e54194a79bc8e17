// Package gemini invokes the Google Gemini generateContent API with text,
// image, and audio payloads and parses its structured JSON responses.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"topikai/internal/core"
	"topikai/internal/httpclient"
	"topikai/internal/media"
)

const (
	// Native Gemini API endpoint
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTextTimeout bounds text and image calls per attempt.
	DefaultTextTimeout = 30 * time.Second
	// DefaultAudioTimeout bounds audio calls per attempt; long-form audio
	// transcription routinely takes tens of seconds.
	DefaultAudioTimeout = 120 * time.Second

	maxRetries        = 1
	initialRetryDelay = 2 * time.Second
)

// Config holds the Gemini client settings. Zero values select defaults;
// BaseURL and HTTPClient exist mainly for tests.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	HTTPClient   *http.Client
	TextTimeout  time.Duration
	AudioTimeout time.Duration
	// RetryDelay is the backoff before the single retry attempt.
	RetryDelay time.Duration
	// RequestsPerMinute throttles outbound model calls. 0 disables
	// client-side throttling.
	RequestsPerMinute int
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	model        string
	baseURL      string
	textTimeout  time.Duration
	audioTimeout time.Duration
	retryDelay   time.Duration
	limiter      *rate.Limiter
}

// New creates a Gemini client.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	// No overall client timeout: each attempt is bounded by its own
	// context deadline, and audio calls legitimately run for minutes.
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpclient.New(httpclient.Config{})
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = DefaultTextTimeout
	}
	if cfg.AudioTimeout <= 0 {
		cfg.AudioTimeout = DefaultAudioTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = initialRetryDelay
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
	}

	return &Client{
		httpClient:   cfg.HTTPClient,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		baseURL:      cfg.BaseURL,
		textTimeout:  cfg.TextTimeout,
		audioTimeout: cfg.AudioTimeout,
		retryDelay:   cfg.RetryDelay,
		limiter:      limiter,
	}
}

// Wire types for the native generateContent API.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// buildRequest assembles a single-turn prompt with an optional inline
// media part. Gemini is asked for application/json so responses arrive
// unfenced in the common case.
func buildRequest(prompt string, buf *media.Buffer) *generateRequest {
	parts := []part{{Text: prompt}}
	if buf != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: buf.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(buf.Data),
		}})
	}
	return &generateRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	}
}

// generate performs the model call with one retry on transient statuses
// and returns the raw text of the first candidate.
func (c *Client) generate(ctx context.Context, req *generateRequest, timeout time.Duration) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", core.NewModelInvocationError("rate limiter interrupted", err)
		}
	}

	var lastErr error
	delay := c.retryDelay
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying model call", "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return "", core.NewModelInvocationError("request cancelled", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, retryable, err := c.doOnce(ctx, req, timeout)
		if err == nil {
			return text, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

func (c *Client) doOnce(ctx context.Context, req *generateRequest, timeout time.Duration) (text string, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", false, core.NewModelInvocationError("failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, core.NewModelInvocationError("failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	// NOTE: The native Gemini API takes the key as a query parameter. The
	// key can end up in proxy and access logs, so nothing upstream of this
	// process should log full request URLs.
	q := httpReq.URL.Query()
	q.Add("key", c.apiKey)
	httpReq.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, core.NewModelInvocationError("failed to send request", err)
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, core.NewModelInvocationError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Gemini API error (status %d): %s", resp.StatusCode, tail(string(respBody), 300))
		return "", isRetryableStatus(resp.StatusCode), core.NewModelInvocationError(msg, nil)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", false, core.NewModelResponseError("failed to unmarshal response", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", false, core.NewModelResponseError("model returned no candidates", nil)
	}

	cand := genResp.Candidates[0]
	var out bytes.Buffer
	for _, p := range cand.Content.Parts {
		out.WriteString(p.Text)
	}
	if out.Len() == 0 {
		reason := cand.FinishReason
		if reason == "" {
			reason = "unknown"
		}
		return "", false, core.NewModelResponseError(fmt.Sprintf("model returned empty content (finishReason=%s)", reason), nil)
	}

	return out.String(), false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
