package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"topikai/internal/core"
	"topikai/internal/httpclient"
)

const (
	// DefaultMaxAudioBytes caps long-form audio downloads at 100 MB.
	DefaultMaxAudioBytes = 100 << 20
	// DefaultMaxImageBytes caps image downloads at 10 MB.
	DefaultMaxImageBytes = 10 << 20
	// DefaultFetchTimeout bounds one download end to end.
	DefaultFetchTimeout = 30 * time.Second

	maxRedirects = 5
)

// FetcherConfig tunes download limits. Zero values select the defaults.
type FetcherConfig struct {
	MaxAudioBytes int64
	MaxImageBytes int64
	Timeout       time.Duration
}

// Fetcher downloads remote media into bounded buffers.
type Fetcher struct {
	client        *http.Client
	maxAudioBytes int64
	maxImageBytes int64
}

// NewFetcher creates a Fetcher with a redirect-capped HTTP client.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = DefaultMaxAudioBytes
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}

	client := httpclient.New(httpclient.Config{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	})

	return &Fetcher{
		client:        client,
		maxAudioBytes: cfg.MaxAudioBytes,
		maxImageBytes: cfg.MaxImageBytes,
	}
}

// FetchAudio downloads an audio file, enforcing the audio size cap.
func (f *Fetcher) FetchAudio(ctx context.Context, rawURL string) (*Buffer, error) {
	return f.fetch(ctx, rawURL, KindAudio, f.maxAudioBytes)
}

// FetchImage downloads an image, enforcing the image size cap.
func (f *Fetcher) FetchImage(ctx context.Context, rawURL string) (*Buffer, error) {
	return f.fetch(ctx, rawURL, KindImage, f.maxImageBytes)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, kind Kind, maxBytes int64) (*Buffer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewMediaFetchError(fmt.Sprintf("invalid media URL %q", rawURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, core.NewMediaFetchError(fmt.Sprintf("unsupported URL scheme %q", u.Scheme), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, core.NewMediaFetchError("failed to build media request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, core.NewMediaFetchError(fmt.Sprintf("failed to download %s", rawURL), err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewMediaFetchError(fmt.Sprintf("media server returned status %d for %s", resp.StatusCode, rawURL), nil)
	}

	// Fail fast when the server announces an oversized body.
	if resp.ContentLength > maxBytes {
		return nil, core.NewMediaFetchError(
			fmt.Sprintf("media size %s exceeds limit %s", humanize.Bytes(uint64(resp.ContentLength)), humanize.Bytes(uint64(maxBytes))),
			core.ErrPayloadTooLarge)
	}

	// Read one byte past the cap so mid-stream overruns are detected even
	// without a Content-Length header.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, core.NewMediaFetchError(fmt.Sprintf("failed reading body of %s", rawURL), err)
	}
	if int64(len(data)) > maxBytes {
		return nil, core.NewMediaFetchError(
			fmt.Sprintf("media exceeds limit %s", humanize.Bytes(uint64(maxBytes))),
			core.ErrPayloadTooLarge)
	}

	mime := MIMEFromURL(rawURL, kind)
	slog.Debug("media downloaded",
		"url", rawURL,
		"kind", kind,
		"size", humanize.Bytes(uint64(len(data))),
		"mime", mime,
	)

	return &Buffer{Data: data, MIMEType: mime, SourceURL: rawURL}, nil
}
