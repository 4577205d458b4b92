// Package session owns the login/logout lifecycle for a polling service
// account. Authentication is cookie-based with one unusual twist: the session
// token used for API calls is not issued by the server. The client derives it
// locally — a random 30-character alphanumeric string — and stores it next to
// the server's cookies, inheriting its expiry from the DoodleAuthentication
// identity cookie. If the server ever stops issuing that cookie, token
// derivation fails; that is a property of the wrapped service, not of this
// package.
package session

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/causal/go-doodle/credentials"
	"github.com/causal/go-doodle/transport"
)

// State of the session lifecycle.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticating  State = "AUTHENTICATING"
	StateAuthenticated   State = "AUTHENTICATED"
)

const (
	landingPath = "/"
	loginPath   = "/np/mydoodle/logister"

	// identityCookieName is the server-issued cookie whose lifetime the
	// derived token inherits.
	identityCookieName = "DoodleAuthentication"
)

// Doer issues unauthenticated HTTP calls. Implemented by transport.Client.
type Doer interface {
	Anonymous(ctx context.Context, method, path string, payload transport.Payload) ([]byte, error)
}

// Credentials identifies the account being logged in.
type Credentials struct {
	Username string
	Password string
	Locale   string
	TimeZone string
}

// Manager drives the session state machine:
// Unauthenticated -> Authenticating -> Authenticated -> (expiry) -> Unauthenticated.
// Authenticated is re-entrant while the token has not expired.
type Manager struct {
	creds Credentials
	store credentials.Store
	doer  Doer

	mu       sync.Mutex
	state    State
	token    string
	nowTime  func() time.Time
	newToken func() string
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithTokenGenerator overrides token generation (primarily for testing).
func WithTokenGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newToken = gen
	}
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a session manager for one account.
func NewManager(creds Credentials, store credentials.Store, doer Doer, options ...Option) (*Manager, error) {
	if creds.Username == "" {
		return nil, errors.New("[NewManager] username is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	if doer == nil {
		return nil, errors.New("[NewManager] doer is required")
	}
	m := &Manager{
		creds:    creds,
		store:    store,
		doer:     doer,
		state:    StateUnauthenticated,
		nowTime:  time.Now,
		newToken: randomToken,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// State returns the current lifecycle state. A cached token that has expired
// since the last call reports Unauthenticated.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		if tok, _ := m.persistedToken(); tok == "" {
			m.state = StateUnauthenticated
			m.token = ""
		}
	}
	return m.state
}

// EnsureAuthenticated returns the active token, performing the full login
// sequence when no unexpired token is cached. The check-login-persist path is
// a critical section: concurrent callers against an expired token wait for
// the single in-flight login and reuse its result.
func (m *Manager) EnsureAuthenticated(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, err := m.persistedToken(); err != nil {
		return "", errors.Wrap(err, "[Manager.EnsureAuthenticated] reading credential store")
	} else if tok != "" {
		m.state = StateAuthenticated
		m.token = tok
		return tok, nil
	}

	m.state = StateAuthenticating
	m.log.Debug().Str("username", m.creds.Username).Msg("logging in")

	// The landing page seeds the pre-auth cookies the login form expects.
	if _, err := m.doer.Anonymous(ctx, http.MethodGet, landingPath, nil); err != nil {
		m.state = StateUnauthenticated
		return "", errors.Wrap(err, "[Manager.EnsureAuthenticated] fetching landing page")
	}

	form := url.Values{}
	form.Set("eMailAddress", m.creds.Username)
	form.Set("password", m.creds.Password)
	form.Set("locale", m.creds.Locale)
	form.Set("timeZone", m.creds.TimeZone)
	if _, err := m.doer.Anonymous(ctx, http.MethodPost, loginPath, transport.Form(form)); err != nil {
		m.state = StateUnauthenticated
		return "", errors.Wrap(err, "[Manager.EnsureAuthenticated] submitting login form")
	}

	tok, err := m.deriveToken()
	if err != nil {
		m.state = StateUnauthenticated
		return "", err
	}

	m.state = StateAuthenticated
	m.token = tok
	m.log.Debug().Str("username", m.creds.Username).Msg("authenticated")
	return tok, nil
}

// ActiveToken returns the cached token if unexpired, re-authenticating
// otherwise. It satisfies transport.TokenSource.
func (m *Manager) ActiveToken(ctx context.Context) (string, error) {
	return m.EnsureAuthenticated(ctx)
}

// Invalidate deletes the persisted credential blob. Subsequent operations
// require a full re-login.
func (m *Manager) Invalidate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(); err != nil {
		return errors.Wrap(err, "[Manager.Invalidate] deleting credential store")
	}
	m.state = StateUnauthenticated
	m.token = ""
	return nil
}

// persistedToken returns the stored token when present and unexpired.
func (m *Manager) persistedToken() (string, error) {
	set, err := m.store.Load()
	if err != nil {
		return "", err
	}
	tok, ok := set.Get(credentials.TokenCookieName)
	if !ok || tok.Expired(m.nowTime()) {
		return "", nil
	}
	return tok.Value, nil
}

// deriveToken generates the client-side token and persists it with the
// expiry of the server's identity cookie. A missing identity cookie after a
// login attempt means the service rejected the credentials.
func (m *Manager) deriveToken() (string, error) {
	set, err := m.store.Load()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.deriveToken] reading credential store")
	}
	identity, ok := set.Get(identityCookieName)
	if !ok {
		return "", &AuthenticationError{Reason: "credentials rejected or identity cookie missing after login"}
	}

	token := identity
	token.Name = credentials.TokenCookieName
	token.Value = m.newToken()
	set[credentials.TokenCookieName] = token

	if err := m.store.Save(set); err != nil {
		return "", errors.Wrap(err, "[Manager.deriveToken] persisting token")
	}
	return token.Value, nil
}
