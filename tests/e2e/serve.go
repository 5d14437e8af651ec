package e2e

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/middleware"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/testutil"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

// InternalMarker is the perimeter marker the test server expects on API calls.
const InternalMarker = "e2e-internal-marker"

// Env is a gateway wired exactly as in the server app, running over TLS
// against a scripted identity backend. TLS matters: the session cookies are
// Secure and a plain-http test server would lose them in the cookie jar.
type Env struct {
	URL  string
	Fake *testutil.FakeIdentity

	srv *httptest.Server
}

func Serve(t *testing.T) *Env {
	t.Helper()

	fake := testutil.NewFakeIdentity(t)
	log := logger.NewNoOpLogger()

	codec, err := session.NewCodec("e2e-ticket-secret")
	require.NoError(t, err)
	gate := session.NewGate(codec, log)
	arrival := session.NewArrival(0)
	guard := session.NewGuard(gate, arrival, log)

	client := upstream.NewClient(fake.URL, 0, log)

	router := handlers.NewRouter(
		handlers.NewAuth(client, gate, arrival, log),
		handlers.NewPassword(client, gate, log),
		handlers.NewAccount(client, log),
		handlers.NewPages(),
		middleware.GuardMiddleware(guard),
		middleware.InternalOnlyMiddleware(InternalMarker),
		middleware.RequestIDMiddleware(),
		middleware.MetricsMiddleware(),
	)

	srv := httptest.NewTLSServer(router)
	t.Cleanup(srv.Close)

	return &Env{URL: srv.URL, Fake: fake, srv: srv}
}

// Client behaves like one browser: it carries cookies between requests and
// surfaces redirects instead of following them.
func (e *Env) Client(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	// Fresh client per call so two "browsers" never share a jar; the transport
	// comes from the test server and trusts its certificate
	return &http.Client{
		Transport: e.srv.Client().Transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// PostAPI sends an API call the way the page scripts do: JSON body, internal
// marker, optional device fingerprint.
func (e *Env) PostAPI(t *testing.T, c *http.Client, path, body, fingerprint string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, e.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderInternalRequest, InternalMarker)
	if fingerprint != "" {
		req.Header.Set(session.HeaderFingerprint, fingerprint)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// GetAPI sends a read-only API call with the internal marker.
func (e *Env) GetAPI(t *testing.T, c *http.Client, path, fingerprint string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderInternalRequest, InternalMarker)
	if fingerprint != "" {
		req.Header.Set(session.HeaderFingerprint, fingerprint)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// GetPage requests a page route, optionally pretending to come from another
// page via the Referer header.
func (e *Env) GetPage(t *testing.T, c *http.Client, path, referer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.URL+path, nil)
	require.NoError(t, err)
	if referer != "" {
		req.Header.Set("Referer", e.URL+referer)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}
