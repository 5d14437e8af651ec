package testutil

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Return random free port on 127.0.0.1 address
func RandomPort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return 0, err
	}
	defer ln.Close() // nolint:errcheck

	addr := ln.Addr().(*net.TCPAddr)
	return addr.Port, nil
}

// FakeIdentity is a scripted identity backend. Tests register a response per
// path; unscripted paths answer 404 so a handler calling the wrong endpoint
// fails loudly.
type FakeIdentity struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	// Requests actually received, by path
	Calls map[string]int
}

func NewFakeIdentity(t *testing.T) *FakeIdentity {
	t.Helper()

	f := &FakeIdentity{
		handlers: make(map[string]http.HandlerFunc),
		Calls:    make(map[string]int),
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.Calls[r.URL.Path]++
		h, ok := f.handlers[r.URL.Path]
		f.mu.Unlock()

		if !ok {
			WriteEnvelope(w, http.StatusNotFound, false, "Not found", nil)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.Server.Close)

	return f
}

// Handle installs a custom handler for the path.
func (f *FakeIdentity) Handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

// Respond scripts a static envelope response for the path.
func (f *FakeIdentity) Respond(path string, status int, success bool, message string, data any) {
	f.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteEnvelope(w, status, success, message, data)
	})
}

// CallCount returns how many requests hit the path.
func (f *FakeIdentity) CallCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[path]
}

// WriteEnvelope writes the backend envelope shape.
func WriteEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	body := map[string]any{
		"success":    success,
		"statusCode": status,
		"message":    message,
	}
	if data != nil {
		body["data"] = data
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// MintAccessToken issues an HS256 JWT the way the identity backend does, so
// expiry extraction can be exercised against a real token.
func MintAccessToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	now := time.Now().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte("test-backend-secret"))
	require.NoError(t, err, "test token should sign without errors")
	return signed
}
