package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		OK(w, "Logged in successfully", map[string]any{"redirectTo": "/dashboard"})
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"success": true,
			"statusCode": 200,
			"message": "Logged in successfully",
			"data": {"redirectTo": "/dashboard"}
		}`,
		string(body),
	)
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ServiceError(w, "something terrible happened", http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.JSONEq(t, `{
			"success": false,
			"statusCode": 403,
			"message": "something terrible happened"
		}`,
		string(body),
	)
}

func TestRender_BindAndValidate(t *testing.T) {
	type loginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	var (
		bound    loginRequest
		bindErr  error
		wasBound bool
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bound, bindErr = BindAndValidate[loginRequest](w, r)
		wasBound = bindErr == nil
		if wasBound {
			OK(w, "ok", nil)
		}
	}))
	defer ts.Close()

	post := func(t *testing.T, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
		return resp
	}

	t.Run("valid body binds", func(t *testing.T) {
		resp := post(t, `{"email":"nk@example.com","password":"long-enough-pw"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.True(t, wasBound)
		assert.Equal(t, "nk@example.com", bound.Email)
	})

	t.Run("malformed json is a decode error", func(t *testing.T) {
		resp := post(t, `not-json`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.False(t, wasBound)
	})

	t.Run("field errors are reported on json tag names", func(t *testing.T) {
		resp := post(t, `{"email":"not-an-email","password":"short"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.False(t, wasBound)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
				"success": false,
				"statusCode": 400,
				"message": "Request validation failed",
				"data": {
					"fields": {
						"email": "Must be a valid email address",
						"password": "Value is too short (minimum 8)"
					}
				}
			}`,
			string(body),
		)
	})
}
