// Package httpclient builds the pooled HTTP clients used for outbound
// traffic. Media downloads and model calls share the same transport
// tuning but need very different request deadlines, so the overall
// timeout stays with the caller.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 100
	idleConnTimeout     = 90 * time.Second
	dialTimeout         = 10 * time.Second
	keepAlive           = 30 * time.Second
	tlsHandshakeTimeout = 10 * time.Second

	// defaultResponseHeaderTimeout must cover audio transcription calls,
	// where the model streams nothing until the whole response is ready.
	defaultResponseHeaderTimeout = 2 * time.Minute
)

// Config tunes one outbound client. Zero values select the defaults.
type Config struct {
	// Timeout bounds a whole request including the body read. Zero
	// leaves the client unbounded; callers then set a deadline on each
	// request context.
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers.
	ResponseHeaderTimeout time.Duration

	// CheckRedirect overrides the default redirect policy.
	CheckRedirect func(req *http.Request, via []*http.Request) error
}

// New creates an HTTP client with a pooled, HTTP/2-ready transport.
func New(cfg Config) *http.Client {
	if cfg.ResponseHeaderTimeout <= 0 {
		cfg.ResponseHeaderTimeout = defaultResponseHeaderTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       cfg.Timeout,
		CheckRedirect: cfg.CheckRedirect,
	}
}
