package codacy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
)

// recordingWaiter records requested delays instead of sleeping
type recordingWaiter struct {
	delays []time.Duration
}

func (w *recordingWaiter) Wait(_ context.Context, d time.Duration) error {
	w.delays = append(w.delays, d)
	return nil
}

func newTestClient(serverURL string, waiter Waiter) *Client {
	return NewClient(serverURL, "secret-token", WithWaiter(waiter))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "token")

	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultMaxRetries, c.maxRetries)

	c = NewClient("http://localhost:8080/api/v3/", "token", WithMaxRetries(5))
	assert.Equal(t, "http://localhost:8080/api/v3", c.BaseURL())
	assert.Equal(t, 5, c.maxRetries)
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}
	c := NewClient("", "token", WithHTTPClient(shared), WithTimeout(5*time.Second))

	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)
}

// rotatingTokens hands out a fresh token on every call
type rotatingTokens struct {
	n int32
}

func (r *rotatingTokens) Token() (*oauth2.Token, error) {
	n := atomic.AddInt32(&r.n, 1)
	return &oauth2.Token{AccessToken: "token-" + strconv.Itoa(int(n))}, nil
}

type failingTokens struct{}

func (failingTokens) Token() (*oauth2.Token, error) {
	return nil, errors.New("vault sealed")
}

func TestClient_TokenSourcePerAttempt(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("api-token"))
		if len(seen) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "static", WithWaiter(&recordingWaiter{}), WithTokenSource(&rotatingTokens{}))

	err := c.Get(context.Background(), "/rotating", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"token-1", "token-2"}, seen)
}

func TestClient_TokenSourceError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := NewClient(server.URL, "static", WithWaiter(&recordingWaiter{}), WithTokenSource(failingTokens{}))

	err := c.Get(context.Background(), "/sealed", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault sealed")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_GetHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret-token", r.Header.Get("api-token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		_, _ = io.WriteString(w, `{"data":"ok"}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})

	var out struct {
		Data string `json:"data"`
	}
	err := c.Get(context.Background(), "/things", map[string][]string{"limit": {"100"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Data)
}

func TestClient_PostSendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret-token", r.Header.Get("api-token"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "main", body["branchName"])

		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})
	err := c.Post(context.Background(), "/search", nil, map[string]string{"branchName": "main"}, nil)
	require.NoError(t, err)
}

func TestClient_PostWithoutBodySendsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(raw))
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})
	require.NoError(t, c.Post(context.Background(), "/search", nil, nil, nil))
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"data":"recovered"}`)
	}))
	defer server.Close()

	waiter := &recordingWaiter{}
	c := newTestClient(server.URL, waiter)

	var out struct {
		Data string `json:"data"`
	}
	err := c.Get(context.Background(), "/flaky", nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "recovered", out.Data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waiter.delays)
}

func TestClient_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	}))
	defer server.Close()

	waiter := &recordingWaiter{}
	c := newTestClient(server.URL, waiter)

	err := c.Get(context.Background(), "/down", nil, nil)
	require.Error(t, err)

	var reqErr *apperrors.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 3, reqErr.Attempts)
	assert.Equal(t, http.MethodGet, reqErr.Method)

	var statusErr *apperrors.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waiter.delays)
}

func TestClient_RateLimitUsesRetryAfter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	waiter := &recordingWaiter{}
	c := newTestClient(server.URL, waiter)

	require.NoError(t, c.Get(context.Background(), "/limited", nil, nil))
	assert.Equal(t, []time.Duration{7 * time.Second}, waiter.delays)
}

func TestClient_RateLimitDefaultsAndNeverDoubles(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	waiter := &recordingWaiter{}
	c := newTestClient(server.URL, waiter)

	err := c.Get(context.Background(), "/limited", nil, nil)
	require.Error(t, err)

	assert.True(t, apperrors.IsStatus(err, http.StatusTooManyRequests))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultRetryAfter, DefaultRetryAfter, DefaultRetryAfter}, waiter.delays)
}

func TestClient_NotFoundIsRetriedThenReported(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})

	err := c.Get(context.Background(), "/missing", nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_InvalidJSONIsAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})

	var out map[string]interface{}
	err := c.Get(context.Background(), "/broken", nil, &out)
	require.Error(t, err)
	assert.True(t, apperrors.IsRequestError(err))
}

func TestClient_UnsupportedMethod(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(server.URL, &recordingWaiter{})

	err := c.Do(context.Background(), http.MethodDelete, server.URL+"/x", nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported HTTP method")
	assert.False(t, apperrors.IsRequestError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_WaitCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, "token")
	err := c.Get(ctx, "/x", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, DefaultRetryAfter, retryAfter("", now))
	assert.Equal(t, 30*time.Second, retryAfter("30", now))
	assert.Equal(t, time.Duration(0), retryAfter("-5", now))
	assert.Equal(t, DefaultRetryAfter, retryAfter("soon", now))

	date := now.Add(90 * time.Second).Format(http.TimeFormat)
	assert.Equal(t, 90*time.Second, retryAfter(date, now))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 4*time.Second, backoffDelay(2))
	assert.Equal(t, 8*time.Second, backoffDelay(3))
}
