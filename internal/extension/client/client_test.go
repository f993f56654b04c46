package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (t staticTokens) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	return string(t), nil
}

func TestAnalyzeSuccess(t *testing.T) {
	var gotAuth string
	var gotBody analyzeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"analysis_id": "a1",
			"ticket_key": "PROJ-1",
			"total_files": 2,
			"confidence_score": 0.8,
			"frontend_files": ["src/App.tsx"],
			"backend_files": ["api/server.go"]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	result, err := c.Analyze(context.Background(), "PROJ-1: fix the login page", "PROJ-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "PROJ-1", gotBody.TicketKey)
	assert.Equal(t, "a1", result.AnalysisID)
	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, []string{"src/App.tsx"}, result.FrontendFiles)
}

func TestAnalyzeBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Monthly ticket limit reached","limit":5}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	_, err := c.Analyze(context.Background(), "some ticket text here", "PROJ-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Monthly ticket limit reached", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "429")
}

func TestAnalyzeErrorWithoutJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	_, err := c.Analyze(context.Background(), "some ticket text here", "PROJ-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestAnalyzeSingleInFlight(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"total_files":0}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))

	done := make(chan error, 1)
	go func() {
		_, err := c.Analyze(context.Background(), "some ticket text here", "PROJ-1")
		done <- err
	}()
	<-arrived // first call is now in flight

	// Further triggers fail fast without reaching the network.
	_, err := c.Analyze(context.Background(), "some ticket text here", "PROJ-1")
	assert.ErrorIs(t, err, ErrAnalyzePending)
	_, err = c.Analyze(context.Background(), "some ticket text here", "PROJ-1")
	assert.ErrorIs(t, err, ErrAnalyzePending)

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestCheckUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/usage/check", r.URL.Path)
		_, _ = w.Write([]byte(`{"can_analyze":true,"subscription_tier":"free","monthly_limit":5,"used_tickets":2,"remaining_tickets":3}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	status, err := c.CheckUsage(context.Background())
	require.NoError(t, err)

	assert.True(t, status.CanAnalyze)
	assert.Equal(t, "free", status.SubscriptionTier)
	assert.Equal(t, 3, status.RemainingTickets)
}

func TestSubmitFeedback(t *testing.T) {
	var got feedbackRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticTokens("tok-1"))
	err := c.SubmitFeedback(context.Background(), "a1", true, 4, "spot on")
	require.NoError(t, err)

	assert.Equal(t, "a1", got.AnalysisID)
	assert.True(t, got.WasAccurate)
	assert.Equal(t, 4, got.AccuracyRating)
	assert.Equal(t, "spot on", got.UserComment)
}

func TestTokenSourceFailureShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, failingTokens{})
	_, err := c.CheckUsage(context.Background())
	require.Error(t, err)
	assert.False(t, called)
}

type failingTokens struct{}

func (failingTokens) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	return "", context.DeadlineExceeded
}
