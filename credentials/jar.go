package credentials

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Jar adapts a Store to net/http's CookieJar interface. Every Set-Cookie the
// service sends is written straight back to the store, because the service
// can rotate its session cookies on any response, GETs included.
type Jar struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

var _ http.CookieJar = (*Jar)(nil)

// JarOption configures a Jar.
type JarOption func(*Jar)

// WithJarLogger attaches a structured logger. Defaults to a no-op logger.
func WithJarLogger(log zerolog.Logger) JarOption {
	return func(j *Jar) {
		j.log = log
	}
}

// NewJar wraps store in a persisting cookie jar.
func NewJar(store Store, options ...JarOption) *Jar {
	j := &Jar{store: store, now: time.Now, log: zerolog.Nop()}
	for _, opt := range options {
		opt(j)
	}
	return j
}

// SetCookies merges the response cookies into the persisted set.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	set, err := j.store.Load()
	if err != nil {
		j.log.Error().Err(err).Msg("loading cookie store failed, response cookies dropped")
		return
	}
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		if c.MaxAge < 0 {
			delete(set, c.Name)
			continue
		}
		domain := c.Domain
		includeSub := true
		if domain == "" {
			domain = u.Hostname()
			includeSub = false
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires int64
		if c.MaxAge > 0 {
			expires = j.now().Add(time.Duration(c.MaxAge) * time.Second).Unix()
		} else if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		set[c.Name] = Cookie{
			Domain:            strings.TrimPrefix(domain, "."),
			IncludeSubdomains: includeSub,
			Path:              path,
			Secure:            c.Secure,
			Expires:           expires,
			Name:              c.Name,
			Value:             c.Value,
		}
	}
	if err := j.store.Save(set); err != nil {
		j.log.Error().Err(err).Msg("persisting response cookies failed")
	}
}

// Cookies returns the unexpired persisted cookies matching the request URL.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	set, err := j.store.Load()
	if err != nil {
		j.log.Error().Err(err).Msg("loading cookie store failed, sending no cookies")
		return nil
	}
	now := j.now()
	var out []*http.Cookie
	for _, c := range set {
		if c.Expired(now) {
			continue
		}
		if !domainMatch(u.Hostname(), c.Domain, c.IncludeSubdomains) {
			continue
		}
		if !strings.HasPrefix(u.EscapedPath(), c.Path) && u.EscapedPath() != "" {
			continue
		}
		if c.Secure && u.Scheme != "https" {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func domainMatch(host, domain string, includeSubdomains bool) bool {
	if host == domain {
		return true
	}
	return includeSubdomains && strings.HasSuffix(host, "."+domain)
}
