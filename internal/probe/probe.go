// Package probe submits a single registration request to a remote API and returns the
// outcome as a typed result.
//
// A run is one blocking POST to <base_url>/register. There are no retries and no
// timeout unless one is configured; the caller's context is the only way to give up
// early. Failures come back as *Error tagged with a Kind so callers can tell
// transport problems (including statuses the transport rejects) apart from a
// successful response that could not be decoded.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njoy/registration-probe/internal/registration"
)

const (
	// RegisterPath is appended to the base URL to build the target endpoint.
	RegisterPath = "/register"

	// RequestIDHeader carries a per-run identifier so the call can be found in
	// server-side logs.
	RequestIDHeader = "X-Request-ID"
)

// HTTPClient is the subset of *http.Client used by the probe.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Probe sends registration requests to a single deployment.
type Probe struct {
	BaseURL string
	Client  HTTPClient
	// FailOnStatus makes non-2xx responses transport errors carrying the response.
	FailOnStatus bool

	newRequestID func() string
}

// Option customises a Probe built by New.
type Option func(*Probe)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(p *Probe) {
		p.Client = c
	}
}

// WithTimeout installs a fresh *http.Client bounded by d. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) {
		p.Client = &http.Client{Timeout: d}
	}
}

// WithFailOnStatus controls whether non-2xx responses are reported as errors.
func WithFailOnStatus(fail bool) Option {
	return func(p *Probe) {
		p.FailOnStatus = fail
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(p *Probe) {
		p.newRequestID = fn
	}
}

// New creates a probe for the deployment at baseURL.
func New(baseURL string, opts ...Option) *Probe {
	p := &Probe{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Client:       &http.Client{},
		FailOnStatus: true,
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// URL returns the registration endpoint the probe posts to.
func (p *Probe) URL() string {
	return p.BaseURL + RegisterPath
}

// Run posts req as JSON and returns the response once its body is known to be JSON.
//
// On failure the returned error is an *Error. Transport failures carry the partial
// response when the server answered at all; a 2xx response with a body that is not
// JSON yields a KindDecode error, also carrying the response.
func (p *Probe) Run(ctx context.Context, req registration.Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration request: %w", err)
	}

	url := p.URL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: OpSend, Err: err}
	}

	requestID := p.newRequestID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	slog.Debug("sending registration request", "url", url, "request_id", requestID, "bytes", len(payload))

	started := time.Now()
	httpResp, err := p.Client.Do(httpReq)
	if err != nil {
		slog.Warn("registration request failed", "url", url, "request_id", requestID, "error", err)
		return nil, &Error{Kind: KindTransport, Op: OpSend, Err: err}
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(httpResp.Body)
	resp := newResponse(httpResp, body, requestID, time.Since(started))

	slog.Info("registration response received",
		"url", url,
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", resp.Duration,
	)

	if readErr != nil {
		return nil, &Error{Kind: KindTransport, Op: OpRead, Response: resp, Err: readErr}
	}

	if p.FailOnStatus && !resp.OK() {
		return nil, newStatusError(resp, url)
	}

	if _, err := resp.JSON(); err != nil {
		return nil, &Error{Kind: KindDecode, Op: OpDecode, Response: resp, Err: err}
	}

	return resp, nil
}
