package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/session"
	"github.com/Decode-Labs-Web3/decode-gateway/internal/testutil"
)

func TestAuthHandler_Register(t *testing.T) {
	t.Run("success opens the verification gate", func(t *testing.T) {
		f := newFixture(t)
		body := captureBody(f, "/auth/register", http.StatusOK, true, "Email verification sent", nil)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/register",
			`{"email":"nk@example.com","username":"nk","password":"long-enough-pw"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.True(t, envelope.Success)
		require.Equal(t, "Email verification sent", envelope.Message)
		require.Equal(t, true, dataField(t, envelope, "requiresVerification"))

		require.Equal(t, "nk@example.com", (*body)["email"])

		gate := requireCookieSet(t, rec, "gate_register-verification")
		require.True(t, gate.HttpOnly)
	})

	t.Run("email conflict is passed through without a gate", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Respond("/auth/register", http.StatusConflict, false, "Email already registered", nil)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/register",
			`{"email":"nk@example.com","username":"nk","password":"long-enough-pw"}`))

		require.Equal(t, http.StatusConflict, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.False(t, envelope.Success)
		require.Equal(t, "Email already registered", envelope.Message)

		requireCookieAbsent(t, rec, "gate_register-verification")
	})

	t.Run("invalid email never reaches the backend", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/register",
			`{"email":"not-an-email","username":"nk","password":"long-enough-pw"}`))

		requireValidationFailure(t, rec, "email")
		require.Zero(t, f.fake.CallCount("/auth/register"))
	})
}

func TestAuthHandler_VerifyRegister(t *testing.T) {
	registerFirst := func(t *testing.T, f *fixture) *httptest.ResponseRecorder {
		t.Helper()
		f.fake.Respond("/auth/register", http.StatusOK, true, "Email verification sent", nil)
		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/register",
			`{"email":"nk@example.com","username":"nk","password":"long-enough-pw"}`))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec
	}

	t.Run("success spends the gate and points at login", func(t *testing.T) {
		f := newFixture(t)
		registered := registerFirst(t, f)
		body := captureBody(f, "/auth/verify-register", http.StatusOK, true, "Email verified", nil)

		rec := httptest.NewRecorder()
		req := carryCookies(postJSON(t, "/verify-register", `{"code":"123456"}`), registered)
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.Equal(t, "/login", dataField(t, envelope, "redirectTo"))

		// Email travels in the ticket, not in the request body
		require.Equal(t, "nk@example.com", (*body)["email"])
		require.Equal(t, "123456", (*body)["code"])

		requireCookieCleared(t, rec, "gate_register-verification")
	})

	t.Run("wrong code keeps the gate open", func(t *testing.T) {
		f := newFixture(t)
		registered := registerFirst(t, f)
		f.fake.Respond("/auth/verify-register", http.StatusBadRequest, false, "Invalid verification code", nil)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, carryCookies(postJSON(t, "/verify-register", `{"code":"000000"}`), registered))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		requireCookieAbsent(t, rec, "gate_register-verification")

		// The same gate still works for a retry
		f.fake.Respond("/auth/verify-register", http.StatusOK, true, "Email verified", nil)
		rec = httptest.NewRecorder()
		f.auth().ServeHTTP(rec, carryCookies(postJSON(t, "/verify-register", `{"code":"123456"}`), registered))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no gate cookie is rejected before the backend", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/verify-register", `{"code":"123456"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Zero(t, f.fake.CallCount("/auth/verify-register"))
	})
}

func TestAuthHandler_ResendVerification(t *testing.T) {
	f := newFixture(t)
	f.fake.Respond("/auth/register", http.StatusOK, true, "Email verification sent", nil)

	registered := httptest.NewRecorder()
	f.auth().ServeHTTP(registered, postJSON(t, "/register",
		`{"email":"nk@example.com","username":"nk","password":"long-enough-pw"}`))

	body := captureBody(f, "/auth/resend-verification", http.StatusOK, true, "Verification email resent", nil)

	rec := httptest.NewRecorder()
	f.auth().ServeHTTP(rec, carryCookies(postJSON(t, "/resend-verification", `{}`), registered))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nk@example.com", (*body)["email"])

	// A fresh gate replaces the old one
	requireCookieSet(t, rec, "gate_register-verification")
}

func TestAuthHandler_VerifyLogin(t *testing.T) {
	loginFirst := func(t *testing.T, f *fixture) *httptest.ResponseRecorder {
		t.Helper()
		f.fake.Respond("/auth/login", http.StatusOK, true, "Verification code sent", nil)
		rec := httptest.NewRecorder()
		req := postJSON(t, "/login", `{"email":"nk@example.com","password":"long-enough-pw"}`)
		req.Header.Set(session.HeaderFingerprint, "fp-hash")
		f.auth().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec
	}

	t.Run("issued grant becomes session cookies and arrival flag", func(t *testing.T) {
		f := newFixture(t)
		logged := loginFirst(t, f)

		access := testutil.MintAccessToken(t, time.Hour)
		f.fake.Respond("/auth/verify-login", http.StatusOK, true, "Login verified", map[string]any{
			"access_token":  access,
			"session_token": "opaque-session",
		})

		rec := httptest.NewRecorder()
		req := carryCookies(postJSON(t, "/verify-login", `{"code":"123456"}`), logged)
		req.Header.Set(session.HeaderFingerprint, "fp-hash")
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.Equal(t, "/dashboard", dataField(t, envelope, "redirectTo"))

		accessCookie := requireCookieSet(t, rec, session.CookieAccessToken)
		require.Equal(t, access, accessCookie.Value)
		require.True(t, accessCookie.HttpOnly)
		requireCookieSet(t, rec, session.CookieRefreshToken)
		requireCookieSet(t, rec, session.CookieArrival)
		requireCookieCleared(t, rec, "gate_login-verification")
	})

	t.Run("device verification outcome leaves no cookies", func(t *testing.T) {
		f := newFixture(t)
		logged := loginFirst(t, f)
		f.fake.Respond("/auth/verify-login", http.StatusOK, true, "Device fingerprint verified", nil)

		rec := httptest.NewRecorder()
		req := carryCookies(postJSON(t, "/verify-login", `{"code":"123456"}`), logged)
		req.Header.Set(session.HeaderFingerprint, "fp-hash")
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.Equal(t, true, dataField(t, envelope, "requiresRelogin"))

		requireCookieAbsent(t, rec, session.CookieAccessToken)
		requireCookieAbsent(t, rec, session.CookieRefreshToken)
		requireCookieAbsent(t, rec, session.CookieArrival)
		// The ticket is spent either way
		requireCookieCleared(t, rec, "gate_login-verification")
	})

	t.Run("missing fingerprint is rejected before the backend", func(t *testing.T) {
		f := newFixture(t)
		logged := loginFirst(t, f)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, carryCookies(postJSON(t, "/verify-login", `{"code":"123456"}`), logged))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Zero(t, f.fake.CallCount("/auth/verify-login"))
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("missing refresh token is unauthorized", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, postJSON(t, "/refresh", `{}`))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Zero(t, f.fake.CallCount("/auth/refresh"))
	})

	t.Run("rotation replaces the token cookies", func(t *testing.T) {
		f := newFixture(t)
		access := testutil.MintAccessToken(t, time.Hour)
		f.fake.Respond("/auth/refresh", http.StatusOK, true, "Tokens refreshed", map[string]any{
			"access_token":  access,
			"session_token": "rotated-session",
		})

		rec := httptest.NewRecorder()
		req := postJSON(t, "/refresh", `{}`)
		req.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "old-session"})
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, access, requireCookieSet(t, rec, session.CookieAccessToken).Value)
		require.Equal(t, "rotated-session", requireCookieSet(t, rec, session.CookieRefreshToken).Value)
		// Refreshing never re-grants the arrival flag
		requireCookieAbsent(t, rec, session.CookieArrival)
	})

	t.Run("revoked session clears everything", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Respond("/auth/refresh", http.StatusUnauthorized, false, "Session revoked", nil)

		rec := httptest.NewRecorder()
		req := postJSON(t, "/refresh", `{}`)
		req.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "revoked-session"})
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		requireCookieCleared(t, rec, session.CookieAccessToken)
		requireCookieCleared(t, rec, session.CookieRefreshToken)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	withSessionCookies := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: session.CookieAccessToken, Value: "access-token"})
		req.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "refresh-token"})
		return req
	}

	t.Run("missing fingerprint is a hard error", func(t *testing.T) {
		f := newFixture(t)

		rec := httptest.NewRecorder()
		f.auth().ServeHTTP(rec, withSessionCookies(postJSON(t, "/logout", `{}`)))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Zero(t, f.fake.CallCount("/auth/logout"))
	})

	t.Run("success revokes upstream and clears cookies", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Respond("/auth/logout", http.StatusOK, true, "Logged out", nil)

		rec := httptest.NewRecorder()
		req := withSessionCookies(postJSON(t, "/logout", `{}`))
		req.Header.Set(session.HeaderFingerprint, "fp-hash")
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, f.fake.CallCount("/auth/logout"))
		requireCookieCleared(t, rec, session.CookieAccessToken)
		requireCookieCleared(t, rec, session.CookieRefreshToken)
	})

	t.Run("cookies are cleared even when upstream fails", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Close()

		rec := httptest.NewRecorder()
		req := withSessionCookies(postJSON(t, "/logout", `{}`))
		req.Header.Set(session.HeaderFingerprint, "fp-hash")
		f.auth().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadGateway, rec.Code)
		requireCookieCleared(t, rec, session.CookieAccessToken)
		requireCookieCleared(t, rec, session.CookieRefreshToken)
	})
}
