package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/causal/go-doodle/credentials"
	"github.com/causal/go-doodle/credentials/storefakes"
	"github.com/causal/go-doodle/transport"
)

type staticTokens string

func (s staticTokens) ActiveToken(context.Context) (string, error) {
	return string(s), nil
}

func newClient(t *testing.T, srv *httptest.Server, options ...transport.Option) *transport.Client {
	t.Helper()
	c, err := transport.New(srv.URL, options...)
	require.NoError(t, err)
	c.SetTokenSource(staticTokens("tok-123"))
	return c
}

func TestRequest_LegacyTokenAsParameter(t *testing.T) {
	var seen url.Values
	r := chi.NewRouter()
	r.Get("/np/users/me", func(w http.ResponseWriter, req *http.Request) {
		seen = req.URL.Query()
		_, _ = w.Write([]byte(`{"name":"John"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	body, err := c.Request(context.Background(), http.MethodGet, "/np/users/me", transport.Form{"locale": {"en_GB"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"John"}`, string(body))
	require.Equal(t, "tok-123", seen.Get("token"))
	require.Equal(t, "en_GB", seen.Get("locale"))
}

func TestRequest_LegacyFormPost(t *testing.T) {
	var seenBody string
	var seenContentType string
	r := chi.NewRouter()
	r.Post("/np/new-polls/", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		seenBody = string(raw)
		seenContentType = req.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	form := transport.Form{
		"title":     {"Lunch"},
		"options[]": {"Mon", "Tue"},
	}
	_, err := c.Request(context.Background(), http.MethodPost, "/np/new-polls/", form)
	require.NoError(t, err)
	require.Equal(t, "application/x-www-form-urlencoded", seenContentType)

	parsed, err := url.ParseQuery(seenBody)
	require.NoError(t, err)
	require.Equal(t, []string{"Mon", "Tue"}, parsed["options[]"])
	require.Equal(t, "tok-123", parsed.Get("token"))
}

func TestRequest_IndexedBracketsNormalized(t *testing.T) {
	var seenBody string
	r := chi.NewRouter()
	r.Post("/np/new-polls/", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		seenBody = string(raw)
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.Request(context.Background(), http.MethodPost, "/np/new-polls/", transport.Form{
		"options[0]": {"Mon"},
	})
	require.NoError(t, err)

	parsed, err := url.ParseQuery(seenBody)
	require.NoError(t, err)
	require.Equal(t, []string{"Mon"}, parsed["options[]"])
	require.Empty(t, parsed["options[0]"])
}

func TestRequest_RestTokenHeaderAndSentinel(t *testing.T) {
	var seenHeader, seenTokenParam string
	r := chi.NewRouter()
	r.Get("/api/v2.0/polls/{id}", func(w http.ResponseWriter, req *http.Request) {
		seenHeader = req.Header.Get("X-DoodleKey")
		seenTokenParam = req.URL.Query().Get("token")
		_, _ = w.Write([]byte(`]{"id":"abc123"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	body, err := c.Request(context.Background(), http.MethodGet, "/api/v2.0/polls/abc123", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc123"}`, string(body))
	require.Equal(t, "tok-123", seenHeader)
	require.Empty(t, seenTokenParam)
}

func TestRequest_NoSentinelDecodesUnchanged(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v2.0/polls/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	body, err := c.Request(context.Background(), http.MethodGet, "/api/v2.0/polls/abc123", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc123"}`, string(body))
}

func TestRequest_RestJSONBody(t *testing.T) {
	var seenBody string
	var seenContentType, seenHeader string
	r := chi.NewRouter()
	r.Post("/api/v2.0/polls", func(w http.ResponseWriter, req *http.Request) {
		raw, _ := io.ReadAll(req.Body)
		seenBody = string(raw)
		seenContentType = req.Header.Get("Content-Type")
		seenHeader = req.Header.Get("X-DoodleKey")
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	body, err := c.Request(context.Background(), http.MethodPost, "/api/v2.0/polls", transport.JSON{V: map[string]string{"title": "Lunch"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"abc123"}`, string(body))
	require.Equal(t, "application/json", seenContentType)
	require.JSONEq(t, `{"title":"Lunch"}`, seenBody)
	require.Equal(t, "tok-123", seenHeader)
}

func TestRequest_DeleteJudgedByStatusOnly(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v2.0/polls/{id}", func(w http.ResponseWriter, req *http.Request) {
		// A body that is not even JSON; it must never be parsed.
		_, _ = w.Write([]byte("<html>whatever</html>"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	body, err := c.Request(context.Background(), http.MethodDelete, "/api/v2.0/polls/abc123", nil)
	require.NoError(t, err)
	require.Nil(t, body)
}

func TestRequest_DeleteRequiresStatus200Exactly(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v2.0/polls/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.Request(context.Background(), http.MethodDelete, "/api/v2.0/polls/abc123", nil)
	require.Error(t, err)

	var terr *transport.TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusNoContent, terr.Status)
}

func TestRequest_ErrorStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/np/users/me", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.Request(context.Background(), http.MethodGet, "/np/users/me", nil)
	require.Error(t, err)

	var terr *transport.TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.MethodGet, terr.Method)
	require.Equal(t, "/np/users/me", terr.Path)
	require.Equal(t, http.StatusInternalServerError, terr.Status)
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	c := newClient(t, srv)
	_, err := c.Request(context.Background(), http.MethodGet, "/np/users/me", nil)
	require.Error(t, err)

	var terr *transport.TransportError
	require.ErrorAs(t, err, &terr)
	require.Zero(t, terr.Status)
	require.Error(t, terr.Unwrap())
}

func TestRequest_CookiesPersistedOnEveryCall(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/np/users/me", func(w http.ResponseWriter, req *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:    "DoodleAuthentication",
			Value:   "rotated",
			Path:    "/",
			Expires: time.Now().Add(time.Hour),
		})
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	store := storefakes.NewFakeStore()
	hc := &http.Client{Jar: credentials.NewJar(store)}
	c := newClient(t, srv, transport.WithHTTPClient(hc))

	_, err := c.Request(context.Background(), http.MethodGet, "/np/users/me", nil)
	require.NoError(t, err)

	set, err := store.Load()
	require.NoError(t, err)
	cookie, ok := set.Get("DoodleAuthentication")
	require.True(t, ok)
	require.Equal(t, "rotated", cookie.Value)
}

func TestRequest_MetricsRecorded(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/np/users/me", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := newClient(t, srv, transport.WithMetrics(reg))

	_, err := c.Request(context.Background(), http.MethodGet, "/np/users/me", nil)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "doodle_client_requests_total")
	require.Contains(t, names, "doodle_client_request_duration_seconds")
}
