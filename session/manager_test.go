package session_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/causal/go-doodle/credentials"
	"github.com/causal/go-doodle/credentials/storefakes"
	"github.com/causal/go-doodle/session"
	"github.com/causal/go-doodle/transport"
)

// fakeDoer plays the service side of the login sequence: the login POST
// leaves the identity cookie in the store, exactly as the real transport's
// cookie jar would after a Set-Cookie.
type fakeDoer struct {
	store        credentials.Store
	identity     *credentials.Cookie // nil simulates rejected credentials
	landingCalls atomic.Int32
	loginCalls   atomic.Int32
}

func (d *fakeDoer) Anonymous(_ context.Context, method, path string, _ transport.Payload) ([]byte, error) {
	if method == http.MethodGet && path == "/" {
		d.landingCalls.Add(1)
		return nil, nil
	}
	d.loginCalls.Add(1)
	if d.identity != nil {
		set, err := d.store.Load()
		if err != nil {
			return nil, err
		}
		set[d.identity.Name] = *d.identity
		if err := d.store.Save(set); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type fixture struct {
	store *storefakes.FakeStore
	doer  *fakeDoer
	mgr   *session.Manager
	now   time.Time
}

func setup(t *testing.T, options ...session.Option) *fixture {
	t.Helper()

	now := time.Unix(1700000000, 0)
	store := storefakes.NewFakeStore()
	doer := &fakeDoer{
		store: store,
		identity: &credentials.Cookie{
			Domain:  "doodle.com",
			Path:    "/",
			Secure:  true,
			Expires: now.Add(24 * time.Hour).Unix(),
			Name:    "DoodleAuthentication",
			Value:   "server-identity",
		},
	}

	opts := append([]session.Option{session.WithNowTime(func() time.Time { return now })}, options...)
	mgr, err := session.NewManager(session.Credentials{
		Username: "john.doe@example.com",
		Password: "password123",
		Locale:   "en_GB",
		TimeZone: "UTC",
	}, store, doer, opts...)
	require.NoError(t, err)

	return &fixture{store: store, doer: doer, mgr: mgr, now: now}
}

func TestManager_LoginSequence(t *testing.T) {
	f := setup(t)
	require.Equal(t, session.StateUnauthenticated, f.mgr.State())

	token, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	require.Len(t, token, 30)
	require.Equal(t, int32(1), f.doer.landingCalls.Load())
	require.Equal(t, int32(1), f.doer.loginCalls.Load())
	require.Equal(t, session.StateAuthenticated, f.mgr.State())

	set, err := f.store.Load()
	require.NoError(t, err)
	stored, ok := set.Get(credentials.TokenCookieName)
	require.True(t, ok)
	require.Equal(t, token, stored.Value)
	// Expiry is inherited from the identity cookie.
	require.Equal(t, f.doer.identity.Expires, stored.Expires)
}

func TestManager_AuthenticatedIsReentrant(t *testing.T) {
	f := setup(t)

	first, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	second, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int32(1), f.doer.loginCalls.Load())
}

func TestManager_ExpiredTokenTriggersSingleRelogin(t *testing.T) {
	now := time.Unix(1700000000, 0)
	f := setup(t, session.WithNowTime(func() time.Time { return now }))

	first, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)

	// Jump past the identity cookie expiry.
	now = now.Add(48 * time.Hour)
	f.doer.identity.Expires = now.Add(24 * time.Hour).Unix()

	second, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, int32(2), f.doer.loginCalls.Load())

	// And the fresh token is reused until it expires again.
	third, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	require.Equal(t, second, third)
	require.Equal(t, int32(2), f.doer.loginCalls.Load())
}

func TestManager_RejectedCredentials(t *testing.T) {
	f := setup(t)
	f.doer.identity = nil // the service never issues the identity cookie

	_, err := f.mgr.EnsureAuthenticated(context.Background())
	require.Error(t, err)

	var authErr *session.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, session.StateUnauthenticated, f.mgr.State())
}

func TestManager_Invalidate(t *testing.T) {
	f := setup(t)

	_, err := f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.mgr.Invalidate())
	require.Equal(t, session.StateUnauthenticated, f.mgr.State())
	require.Equal(t, 1, f.store.Deletes)

	_, err = f.mgr.EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), f.doer.loginCalls.Load())
}

func TestManager_ConcurrentEnsureAuthenticated(t *testing.T) {
	f := setup(t)

	const callers = 16
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = f.mgr.EnsureAuthenticated(context.Background())
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), f.doer.loginCalls.Load())
	for i := range tokens {
		require.NoError(t, errs[i])
		require.Equal(t, tokens[0], tokens[i])
	}
}
