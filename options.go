package doodle

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// config collects everything New needs beyond the account credentials.
// Defaults match the behavior of the service's other clients.
type config struct {
	baseURL       string
	locale        string
	timeZone      string
	userAgent     string
	credentialDir string
	httpClient    *http.Client
	log           zerolog.Logger
	metrics       prometheus.Registerer
	sentinel      byte
	sentinelSet   bool
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL overrides the service base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithLocale sets the locale sent on locale-aware endpoints (default en_GB).
func WithLocale(locale string) Option {
	return func(c *config) {
		c.locale = locale
	}
}

// WithTimeZone sets the time zone submitted on login (default UTC).
func WithTimeZone(tz string) Option {
	return func(c *config) {
		c.timeZone = tz
	}
}

// WithUserAgent replaces the synthesized default user agent. The user agent
// is part of the credential-file naming, so changing it starts a new session.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

// WithCredentialDir sets where the session credential blob is persisted
// (default: the system temp directory).
func WithCredentialDir(dir string) Option {
	return func(c *config) {
		c.credentialDir = dir
	}
}

// WithHTTPClient replaces the underlying http.Client. Its cookie jar is
// overwritten with the persisting jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithMetrics registers transport metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.metrics = reg
	}
}

// WithSentinel overrides the sentinel character stripped from REST responses.
func WithSentinel(b byte) Option {
	return func(c *config) {
		c.sentinel = b
		c.sentinelSet = true
	}
}

func defaultConfig() config {
	return config{
		baseURL:       DefaultBaseURL,
		locale:        "en_GB",
		timeZone:      "UTC",
		userAgent:     defaultUserAgent(),
		credentialDir: os.TempDir(),
		log:           zerolog.Nop(),
	}
}
