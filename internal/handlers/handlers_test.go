package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/handlers/render"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/testutil"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/upstream"
)

// fixture wires the handlers against a scripted identity backend, the way
// the server app does it, minus the outer middleware.
type fixture struct {
	fake    *testutil.FakeIdentity
	gate    *session.Gate
	arrival *session.Arrival
	client  *upstream.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fake := testutil.NewFakeIdentity(t)

	codec, err := session.NewCodec("handler-test-secret")
	require.NoError(t, err)

	return &fixture{
		fake:    fake,
		gate:    session.NewGate(codec, logger.NewNoOpLogger()),
		arrival: session.NewArrival(0),
		client:  upstream.NewClient(fake.URL, 0, logger.NewNoOpLogger()),
	}
}

func (f *fixture) auth() http.Handler {
	return NewAuth(f.client, f.gate, f.arrival, logger.NewNoOpLogger()).Handler()
}

func (f *fixture) password() http.Handler {
	return NewPassword(f.client, f.gate, logger.NewNoOpLogger()).Handler()
}

func (f *fixture) account() http.Handler {
	return NewAccount(f.client, logger.NewNoOpLogger()).Handler()
}

func postJSON(t *testing.T, path string, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// carryCookies copies the cookies a previous response set onto the request,
// imitating a browser following the flow.
func carryCookies(r *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 && c.Value != "" {
			r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) render.Envelope {
	t.Helper()

	var envelope render.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

// dataField digs a key out of the envelope data object.
func dataField(t *testing.T, envelope render.Envelope, key string) any {
	t.Helper()

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok, "envelope data is not an object: %v", envelope.Data)
	return data[key]
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func requireCookieSet(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	c := findCookie(t, rec, name)
	require.NotNil(t, c, "cookie %q not set", name)
	require.NotEmpty(t, c.Value)
	require.GreaterOrEqual(t, c.MaxAge, 0, "cookie %q is a deletion", name)
	return c
}

func requireCookieCleared(t *testing.T, rec *httptest.ResponseRecorder, name string) {
	t.Helper()

	c := findCookie(t, rec, name)
	require.NotNil(t, c, "cookie %q not touched", name)
	require.Less(t, c.MaxAge, 0, "cookie %q not cleared", name)
}

func requireCookieAbsent(t *testing.T, rec *httptest.ResponseRecorder, name string) {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 && c.Value != "" {
			t.Fatalf("cookie %q unexpectedly set to %q", name, c.Value)
		}
	}
}

// captureBody records the JSON body the backend received on a path while
// still answering with the scripted envelope.
func captureBody(f *fixture, path string, status int, success bool, message string, data any) *map[string]any {
	captured := &map[string]any{}
	f.fake.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(captured)
		testutil.WriteEnvelope(w, status, success, message, data)
	})
	return captured
}

func requireValidationFailure(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.False(t, envelope.Success)

	fields, ok := dataField(t, envelope, "fields").(map[string]any)
	require.True(t, ok)
	require.Contains(t, fields, field)
}
