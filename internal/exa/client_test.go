package exa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		// High enough that tests never block on the limiter.
		RateLimit: 1000,
		RateBurst: 1000,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	_, err = NewClient(&Config{})
	require.Error(t, err)

	client, err := NewClient(&Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, 30*time.Second, client.config.Timeout)
}

func TestSearchSendsExpectedRequest(t *testing.T) {
	var gotPath, gotAPIKey, gotContentType string
	var gotBody SearchRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			RequestID: "req-1",
			Results: []Result{
				{ID: "doc-1", Title: "Hit", URL: "https://example.com", Text: "body"},
			},
		})
	}))

	resp, err := client.Search(context.Background(), "golang channels", 7)
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "golang channels", gotBody.Query)
	assert.Equal(t, "auto", gotBody.Type)
	assert.Equal(t, 7, gotBody.NumResults)
	assert.True(t, gotBody.Contents.Text)

	assert.Equal(t, "req-1", resp.RequestID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Hit", resp.Results[0].Title)
}

func TestFindSimilarSendsExpectedRequest(t *testing.T) {
	var gotPath string
	var gotBody FindSimilarRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(SearchResponse{RequestID: "req-2"})
	}))

	resp, err := client.FindSimilar(context.Background(), "https://go.dev/blog", 3)
	require.NoError(t, err)

	assert.Equal(t, "/findSimilar", gotPath)
	assert.Equal(t, "https://go.dev/blog", gotBody.URL)
	assert.Equal(t, 3, gotBody.NumResults)
	assert.True(t, gotBody.Contents.Text)
	assert.Equal(t, "req-2", resp.RequestID)
}

func TestGetContentsSendsExpectedRequest(t *testing.T) {
	var gotPath string
	var gotBody ContentsRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(ContentsResponse{
			RequestID: "req-3",
			Results:   []Result{{ID: "doc-1", Text: "full text"}},
		})
	}))

	resp, err := client.GetContents(context.Background(), []string{"doc-1", "doc-2"})
	require.NoError(t, err)

	assert.Equal(t, "/contents", gotPath)
	assert.Equal(t, []string{"doc-1", "doc-2"}, gotBody.IDs)
	assert.Equal(t, "req-3", resp.RequestID)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "full text", resp.Results[0].Text)
}

func TestErrorResponseWithJSONMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "numResults out of range"}`))
	}))

	_, err := client.Search(context.Background(), "q", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, types.ErrorTypeInvalidArgument, apiErr.Type)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Exa API error: numResults out of range")
	assert.False(t, apiErr.IsRetryable())
}

func TestErrorResponseWithoutBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Search(context.Background(), "q", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, types.ErrorTypeUpstream, apiErr.Type)
	assert.True(t, apiErr.IsRetryable())
}

func TestErrorClassificationByStatus(t *testing.T) {
	tests := []struct {
		status    int
		errType   types.ErrorType
		retryable bool
	}{
		{http.StatusUnauthorized, types.ErrorTypeAuthentication, false},
		{http.StatusForbidden, types.ErrorTypeAuthentication, false},
		{http.StatusTooManyRequests, types.ErrorTypeRateLimit, true},
		{http.StatusBadRequest, types.ErrorTypeInvalidArgument, false},
		{http.StatusUnprocessableEntity, types.ErrorTypeInvalidArgument, false},
		{http.StatusInternalServerError, types.ErrorTypeUpstream, true},
		{http.StatusServiceUnavailable, types.ErrorTypeUpstream, true},
		{http.StatusNotFound, types.ErrorTypeUpstream, false},
	}

	for _, tt := range tests {
		apiErr := ClassifyHTTPError(tt.status, "")
		assert.Equal(t, tt.errType, apiErr.Type, "status %d", tt.status)
		assert.Equal(t, tt.retryable, apiErr.Retryable, "status %d", tt.status)
		assert.Contains(t, apiErr.Message, "Exa API error:")
	}
}

func TestRequestTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Timeout:   100 * time.Millisecond,
		RateLimit: 1000,
		RateBurst: 1000,
	})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, []types.ErrorType{types.ErrorTypeTimeout, types.ErrorTypeUpstream}, apiErr.Type)
}

func TestTransportError(t *testing.T) {
	client, err := NewClient(&Config{
		APIKey:    "test-key",
		BaseURL:   "http://127.0.0.1:1", // nothing listens here
		Timeout:   500 * time.Millisecond,
		RateLimit: 1000,
		RateBurst: 1000,
	})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
}

func TestMalformedResponseBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))

	_, err := client.Search(context.Background(), "q", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, types.ErrorTypeUpstream, apiErr.Type)
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "q", 10)
	require.Error(t, err)
}
