// Package clients holds the outbound HTTP client shared by the extractor,
// embedding and vector store integrations.
package clients

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// Logger interface for HTTP client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Options configures an HTTPClient
type Options struct {
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls; <= 0 disables throttling
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// DialControl, when set, vets every address before connecting
	DialControl func(network, address string, c syscall.RawConn) error
	// Transport overrides the transport entirely (tests)
	Transport http.RoundTripper
}

// HTTPClient wraps http.Client with a timeout, an outbound rate limiter and logging
type HTTPClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    Logger
}

// NewHTTPClient creates a new HTTP client wrapper
func NewHTTPClient(opts Options, logger Logger) *HTTPClient {
	transport := opts.Transport
	if transport == nil {
		dialer := &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   opts.DialControl,
		}
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.DialContext = dialer.DialContext
		base.Proxy = nil
		transport = base
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "secondbrain/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:   limiter,
		userAgent: userAgent,
		logger:    logger,
	}
}

// DoRequest waits for the limiter, then executes an HTTP request.
// The caller closes the response body.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("outbound request failed", "method", method, "host", req.URL.Host, "error", err)
		return nil, err
	}

	c.logger.Debug("outbound request",
		"method", method,
		"host", req.URL.Host,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
