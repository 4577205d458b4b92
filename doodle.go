// Package doodle is a client for the Doodle online polling service. It wraps
// the service's two HTTP API generations behind a small domain model: connect
// and disconnect a session, list polls, create and delete polls, and manage
// participants.
//
// Sessions are persisted between runs: the cookie set (and the locally
// derived session token) is stored in a Netscape-format cookie file named
// deterministically from the account identity, so a new Client for the same
// account silently reuses the previous session until it expires.
package doodle

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/pkg/errors"

	"github.com/causal/go-doodle/credentials"
	"github.com/causal/go-doodle/polls"
	"github.com/causal/go-doodle/session"
	"github.com/causal/go-doodle/transport"
)

// DefaultBaseURL is the production service endpoint.
const DefaultBaseURL = "https://doodle.com"

// Client is the library entry point. It is safe for concurrent use; at most
// one login is in flight at a time.
type Client struct {
	store     *credentials.FileStore
	transport *transport.Client
	session   *session.Manager
	polls     *polls.Repository
}

// New creates a Client for one account. No network traffic happens until the
// first operation.
func New(username, password string, options ...Option) (*Client, error) {
	if username == "" {
		return nil, errors.New("[doodle.New] username is required")
	}

	cfg := defaultConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	// The user agent doubles as the fixed client signature in the
	// credential-file name.
	store := credentials.NewFileStore(cfg.credentialDir, username, password, cfg.userAgent)

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	hc.Jar = credentials.NewJar(store, credentials.WithJarLogger(cfg.log))

	trOpts := []transport.Option{
		transport.WithHTTPClient(hc),
		transport.WithUserAgent(cfg.userAgent),
		transport.WithLogger(cfg.log),
	}
	if cfg.metrics != nil {
		trOpts = append(trOpts, transport.WithMetrics(cfg.metrics))
	}
	if cfg.sentinelSet {
		trOpts = append(trOpts, transport.WithSentinel(cfg.sentinel))
	}
	tr, err := transport.New(cfg.baseURL, trOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "[doodle.New] building transport")
	}

	mgr, err := session.NewManager(session.Credentials{
		Username: username,
		Password: password,
		Locale:   cfg.locale,
		TimeZone: cfg.timeZone,
	}, store, tr, session.WithLogger(cfg.log))
	if err != nil {
		return nil, errors.Wrap(err, "[doodle.New] building session manager")
	}
	tr.SetTokenSource(mgr)

	repo, err := polls.NewRepository(tr,
		polls.WithLocale(cfg.locale),
		polls.WithLogger(cfg.log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[doodle.New] building poll repository")
	}

	return &Client{
		store:     store,
		transport: tr,
		session:   mgr,
		polls:     repo,
	}, nil
}

// Connect establishes or validates the session, logging in when no unexpired
// persisted session exists.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.session.EnsureAuthenticated(ctx)
	return err
}

// Disconnect drops the session by deleting the persisted credential blob.
func (c *Client) Disconnect() error {
	return c.session.Invalidate()
}

// SessionState reports the session lifecycle state.
func (c *Client) SessionState() session.State {
	return c.session.State()
}

// CredentialPath returns where this account's session is persisted.
func (c *Client) CredentialPath() string {
	return c.store.Path()
}

// MyPolls lists the polls owned by the account.
func (c *Client) MyPolls(ctx context.Context) ([]*polls.Poll, error) {
	return c.polls.MyPolls(ctx)
}

// OtherPolls lists polls the account participates in without owning.
func (c *Client) OtherPolls(ctx context.Context) ([]*polls.Poll, error) {
	return c.polls.OtherPolls(ctx)
}

// CreatePoll creates a poll from spec and returns it with its assigned ID
// and admin key.
func (c *Client) CreatePoll(ctx context.Context, spec polls.Spec) (*polls.Poll, error) {
	return c.polls.Create(ctx, spec)
}

// DeletePoll deletes a poll. The poll must carry its admin key.
func (c *Client) DeletePoll(ctx context.Context, poll *polls.Poll) error {
	return c.polls.Delete(ctx, poll)
}

// DeleteParticipant removes a participant from a poll the account administers.
func (c *Client) DeleteParticipant(ctx context.Context, poll *polls.Poll, participantID int64) error {
	return c.polls.DeleteParticipant(ctx, poll, participantID)
}

// RawDetail returns a poll's unmapped detail payload.
func (c *Client) RawDetail(ctx context.Context, poll *polls.Poll) ([]byte, error) {
	return c.polls.RawDetail(ctx, poll)
}

// UserInfo returns the account information the service reports for the
// current session.
func (c *Client) UserInfo(ctx context.Context) (map[string]any, error) {
	return c.polls.UserInfo(ctx)
}

func defaultUserAgent() string {
	return fmt.Sprintf("Mozilla/5.0 (%s %s) Doodle Go Client", runtime.GOOS, runtime.GOARCH)
}
