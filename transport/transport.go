// Package transport issues HTTP calls against the polling service, bridging
// its two API generations: the legacy form-encoded surface (session carried
// via cookies, token as a request parameter) and the newer JSON REST surface
// (token carried via a custom header, response bodies optionally prefixed
// with a sentinel character).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// restPrefix marks paths belonging to the JSON REST generation.
const restPrefix = "/api/"

// tokenHeader carries the session token on REST calls.
const tokenHeader = "X-DoodleKey"

// tokenParam carries the session token on legacy calls.
const tokenParam = "token"

// DefaultSentinel is the character some JSON responses are prefixed with.
const DefaultSentinel byte = ']'

// TokenSource supplies the current session token, re-authenticating when the
// cached one has expired. Implemented by session.Manager.
type TokenSource interface {
	ActiveToken(ctx context.Context) (string, error)
}

// Client performs requests against one service base URL. All cookies the
// service sets are persisted through the attached jar after every call.
type Client struct {
	base      *url.URL
	hc        *http.Client
	tokens    TokenSource
	userAgent string
	sentinel  byte
	log       zerolog.Logger
	metrics   *metricsSet
	nowTime   func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. The caller is expected
// to attach a cookie jar (credentials.Jar) so session cookies persist.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithSentinel overrides the sentinel character stripped from JSON responses.
func WithSentinel(b byte) Option {
	return func(c *Client) {
		c.sentinel = b
	}
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics registers request counters and latency histograms with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = newMetricsSet(reg)
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, options ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[transport.New] parsing base URL")
	}
	c := &Client{
		base:     base,
		hc:       http.DefaultClient,
		sentinel: DefaultSentinel,
		log:      zerolog.Nop(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// SetTokenSource attaches the session manager after construction; the
// manager itself needs the client for its login calls, so the two are wired
// in two steps.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Request performs an authenticated call: the current session token is
// attached as the X-DoodleKey header on REST paths and as the token request
// parameter on legacy paths.
func (c *Client) Request(ctx context.Context, method, path string, payload Payload) ([]byte, error) {
	token := ""
	if c.tokens != nil {
		var err error
		token, err = c.tokens.ActiveToken(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Request] acquiring session token")
		}
	}
	return c.do(ctx, method, path, payload, token)
}

// Anonymous performs a call without session credentials. The session manager
// uses it for the pre-auth landing page and the login form itself.
func (c *Client) Anonymous(ctx context.Context, method, path string, payload Payload) ([]byte, error) {
	return c.do(ctx, method, path, payload, "")
}

func (c *Client) do(ctx context.Context, method, path string, payload Payload, token string) ([]byte, error) {
	target := *c.base
	target.Path = strings.TrimSuffix(target.Path, "/") + path
	rest := strings.HasPrefix(path, restPrefix)

	var body io.Reader
	contentType := ""
	switch p := payload.(type) {
	case nil:
	case Form:
		values := cloneValues(p.Values())
		if token != "" && !rest {
			values.Set(tokenParam, token)
		}
		encoded := encodeForm(values)
		if method == http.MethodPost || method == http.MethodPut {
			body = strings.NewReader(encoded)
			contentType = "application/x-www-form-urlencoded"
		} else {
			target.RawQuery = encoded
		}
	case JSON:
		encoded, err := json.Marshal(p.V)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.do] encoding JSON payload")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	default:
		return nil, errors.Errorf("[Client.do] unsupported payload type %T", payload)
	}

	if token != "" && !rest && payload == nil {
		q := target.Query()
		q.Set(tokenParam, token)
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.do] building request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" && rest {
		req.Header.Set(tokenHeader, token)
	}

	requestID := uuid.NewString()
	started := c.nowTime()
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Msg("issuing request")

	resp, err := c.hc.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, c.nowTime().Sub(started))
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	elapsed := c.nowTime().Sub(started)
	c.metrics.observe(method, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("request completed")

	// Success of a DELETE is signalled by status 200 alone; no body is
	// parsed and nothing else counts as success.
	if method == http.MethodDelete {
		if resp.StatusCode != http.StatusOK {
			return nil, &TransportError{Method: method, Path: path, Status: resp.StatusCode}
		}
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Method: method, Path: path, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if rest {
		raw = stripSentinel(raw, c.sentinel)
	}
	return raw, nil
}

// stripSentinel removes exactly one leading sentinel byte when present.
// Bodies without the prefix pass through unchanged.
func stripSentinel(body []byte, sentinel byte) []byte {
	if len(body) > 0 && body[0] == sentinel {
		return body[1:]
	}
	return body
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
