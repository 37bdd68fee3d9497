package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/photo-gallery/internal/service"
	"github.com/dom/photo-gallery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userEnvelope struct {
	Data *testutil.UserResponse `json:"data"`
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"username": "newuser",
				"password": "password123",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result userEnvelope
				testutil.AssertJSONResponse(t, resp, &result)
				require.NotNil(t, result.Data)
				assert.Equal(t, "newuser", result.Data.Username)
				assert.NotEmpty(t, result.Data.ID)

				cookie := testutil.SessionCookie(resp)
				require.NotNil(t, cookie)
				assert.NotEmpty(t, cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.Equal(t, int(service.SessionTTL.Seconds()), cookie.MaxAge)
				assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
			},
		},
		{
			name: "missing username",
			request: map[string]string{
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing password",
			request: map[string]string{
				"username": "testuser",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate username",
			request: map[string]string{
				"username": "existinguser",
				"password": "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "password longer than 72 bytes",
			request: map[string]string{
				"username": "longpassword",
				"password": strings.Repeat("p", 73),
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "at most 72 bytes")
			},
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			resp := postJSON(t, ts.APIURL("/auth/register"), tt.request)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithPassword("correctpassword").
		Build(t, ts.DB.DB)

	tests := []struct {
		name            string
		request         map[string]string
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "successful login",
			request:        map[string]string{"username": "loginuser", "password": "correctpassword"},
			expectedStatus: http.StatusOK,
		},
		{
			name:            "wrong password",
			request:         map[string]string{"username": "loginuser", "password": "wrongpassword"},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "invalid credentials",
		},
		{
			name:            "unknown user",
			request:         map[string]string{"username": "nobody", "password": "password"},
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.APIURL("/auth/login"), tt.request)

			if tt.expectedMessage != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
				assert.Nil(t, testutil.SessionCookie(resp))
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result userEnvelope
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, "loginuser", result.Data.Username)
			assert.NotNil(t, testutil.SessionCookie(resp))
		})
	}
}

func TestAuthHandler_SecureCookie(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.HTTPS = true
	ts := testutil.NewTestServerWithConfig(t, cfg)

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"username": "secure",
		"password": "password123",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	cookie := testutil.SessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, cookie := testutil.NewUserBuilder().WithUsername("me").BuildAndAuthenticate(t, ts)

	t.Run("with session", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, cookie))
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result userEnvelope
		testutil.AssertJSONResponse(t, resp, &result)
		require.NotNil(t, result.Data)
		assert.Equal(t, user.ID.String(), result.Data.ID)
		assert.Equal(t, "me", result.Data.Username)
	})

	t.Run("without session", func(t *testing.T) {
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, nil))
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result userEnvelope
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Nil(t, result.Data)
	})

	t.Run("unknown session", func(t *testing.T) {
		stale := &http.Cookie{Name: "sessionId", Value: "does-not-exist"}
		resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, stale))
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var result userEnvelope
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Nil(t, result.Data)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, cookie := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/auth/logout"), nil, cookie))
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]
	assert.Equal(t, "sessionId", last.Name)
	assert.Less(t, last.MaxAge, 0)

	// The session is gone, so the guarded routes reject the old cookie
	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/gallery"), nil, cookie))
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	resp = testutil.Do(t, testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/auth/logout"), nil, cookie))
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "No session found")
}

func TestAuthHandler_RateLimit(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.AuthRateLimitPerMinute = 2
	ts := testutil.NewTestServerWithConfig(t, cfg)

	body := map[string]string{"username": "nobody", "password": "password"}
	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts.APIURL("/auth/login"), body)
		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	}

	resp := postJSON(t, ts.APIURL("/auth/login"), body)
	testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, "Too many requests")
}
