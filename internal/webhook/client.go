package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"modelrelay/internal/models"
)

const (
	defaultJSONTimeout      = 120 * time.Second
	defaultMultipartTimeout = 180 * time.Second

	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second

	maxReplyBytes = 8 << 20 // 8 MiB

	userAgent = "modelrelay/0.1"
)

// TransportError wraps a network-level failure reaching the webhook:
// connection refusal, DNS failure or a hit deadline. It is never retried.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webhook request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx webhook reply. The raw body is carried
// verbatim so callers can surface it without normalization.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

// Reply is one webhook response, read fully into memory.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// OK reports whether the reply carried a 2xx status.
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client performs single webhook calls. Multipart submits carry larger
// bodies and get a longer deadline than JSON ones; beyond that every call
// is one blocking POST with no retries.
type Client struct {
	httpClient       *http.Client
	jsonTimeout      time.Duration
	multipartTimeout time.Duration
}

// New constructs a webhook client. Non-positive timeouts fall back to the
// defaults (120s JSON, 180s multipart).
func New(jsonTimeout, multipartTimeout time.Duration) *Client {
	if jsonTimeout <= 0 {
		jsonTimeout = defaultJSONTimeout
	}
	if multipartTimeout <= 0 {
		multipartTimeout = defaultMultipartTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		httpClient:       &http.Client{Transport: transport},
		jsonTimeout:      jsonTimeout,
		multipartTimeout: multipartTimeout,
	}
}

// Send performs exactly one POST of the encoded request to url and reads
// the reply fully. Non-2xx statuses are returned as a Reply, not an error;
// only transport-level failures produce a *TransportError.
func (c *Client) Send(ctx context.Context, url string, req models.OutboundRequest) (*Reply, error) {
	timeout := c.jsonTimeout
	if req.Multipart {
		timeout = c.multipartTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("construct request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxReplyBytes))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read reply body: %w", err)}
	}

	return &Reply{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}
