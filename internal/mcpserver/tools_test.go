package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/cache"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/exa"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

// fakeSearcher records calls and returns canned responses.
type fakeSearcher struct {
	searchCalls      int
	findSimilarCalls int
	getContentsCalls int

	lastQuery      string
	lastURL        string
	lastIDs        []string
	lastNumResults int

	searchResp   *exa.SearchResponse
	contentsResp *exa.ContentsResponse
	err          error
}

func (f *fakeSearcher) Search(_ context.Context, query string, numResults int) (*exa.SearchResponse, error) {
	f.searchCalls++
	f.lastQuery = query
	f.lastNumResults = numResults
	return f.searchResp, f.err
}

func (f *fakeSearcher) FindSimilar(_ context.Context, url string, numResults int) (*exa.SearchResponse, error) {
	f.findSimilarCalls++
	f.lastURL = url
	f.lastNumResults = numResults
	return f.searchResp, f.err
}

func (f *fakeSearcher) GetContents(_ context.Context, ids []string) (*exa.ContentsResponse, error) {
	f.getContentsCalls++
	f.lastIDs = ids
	return f.contentsResp, f.err
}

func sampleSearchResponse() *exa.SearchResponse {
	return &exa.SearchResponse{
		RequestID:          "req-123",
		ResolvedSearchType: "neural",
		Results: []exa.Result{
			{ID: "doc-1", Title: "First", URL: "https://example.com/1", Text: "body one", Score: 0.9},
			{ID: "doc-2", Title: "Second", URL: "https://example.com/2", Text: "body two", Score: 0.7},
		},
	}
}

func newTestServer(t *testing.T, searcher Searcher, capacity int) (*Server, *cache.RecentSearches) {
	t.Helper()
	searches := cache.New(capacity)
	server, err := NewServer(searcher, searches, &types.Config{})
	require.NoError(t, err)
	return server, searches
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServerRejectsNilCollaborators(t *testing.T) {
	searches := cache.New(5)
	cfg := &types.Config{}

	_, err := NewServer(nil, searches, cfg)
	require.Error(t, err)

	_, err = NewServer(&fakeSearcher{}, nil, cfg)
	require.Error(t, err)

	_, err = NewServer(&fakeSearcher{}, searches, nil)
	require.Error(t, err)
}

func TestHandleSearchSuccess(t *testing.T) {
	searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
	server, searches := newTestServer(t, searcher, 5)

	result, _, err := server.handleSearch(context.Background(), nil, searchInput{Query: "golang", NumResults: 3})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, 1, searcher.searchCalls)
	require.Equal(t, "golang", searcher.lastQuery)
	require.Equal(t, 3, searcher.lastNumResults)

	var decoded exa.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	require.Equal(t, "req-123", decoded.RequestID)
	require.Len(t, decoded.Results, 2)

	require.Equal(t, 1, searches.Len())
	rec, ok := searches.Get(0)
	require.True(t, ok)
	require.Equal(t, types.RecordKindSearch, rec.Kind)
	require.Equal(t, "golang", rec.QueryOrURL)
	require.Equal(t, "req-123", rec.RequestID)
	require.Len(t, rec.Results, 2)
	require.Equal(t, "body one", rec.Results[0].Snippet)
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.Timestamp.IsZero())
}

func TestHandleSearchDefaultsNumResults(t *testing.T) {
	searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
	server, _ := newTestServer(t, searcher, 5)

	_, _, err := server.handleSearch(context.Background(), nil, searchInput{Query: "golang"})
	require.NoError(t, err)
	require.Equal(t, defaultNumResults, searcher.lastNumResults)
}

func TestHandleSearchInvalidArguments(t *testing.T) {
	cases := []struct {
		name  string
		input searchInput
	}{
		{"empty query", searchInput{Query: ""}},
		{"blank query", searchInput{Query: "   "}},
		{"num_results too small", searchInput{Query: "golang", NumResults: -1}},
		{"num_results too large", searchInput{Query: "golang", NumResults: 51}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
			server, searches := newTestServer(t, searcher, 5)

			result, _, err := server.handleSearch(context.Background(), nil, tc.input)
			require.NoError(t, err)
			require.True(t, result.IsError)
			require.Contains(t, resultText(t, result), "invalid argument")

			require.Equal(t, 0, searcher.searchCalls, "upstream must not be called")
			require.Equal(t, 0, searches.Len(), "failed calls must not be cached")
		})
	}
}

func TestHandleSearchUpstreamError(t *testing.T) {
	searcher := &fakeSearcher{err: exa.NewAPIError(types.ErrorTypeUpstream, "Exa API error: boom")}
	server, searches := newTestServer(t, searcher, 5)

	result, _, err := server.handleSearch(context.Background(), nil, searchInput{Query: "golang"})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "Exa API error: boom")
	require.Equal(t, 0, searches.Len(), "failed calls must not be cached")
}

func TestHandleFindSimilarSuccess(t *testing.T) {
	searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
	server, searches := newTestServer(t, searcher, 5)

	result, _, err := server.handleFindSimilar(context.Background(), nil, findSimilarInput{URL: "https://example.com"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, 1, searcher.findSimilarCalls)
	require.Equal(t, "https://example.com", searcher.lastURL)
	require.Equal(t, defaultNumResults, searcher.lastNumResults)

	rec, ok := searches.Get(0)
	require.True(t, ok)
	require.Equal(t, types.RecordKindFindSimilar, rec.Kind)
	require.Equal(t, "https://example.com", rec.QueryOrURL)
}

func TestHandleFindSimilarInvalidArguments(t *testing.T) {
	searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
	server, searches := newTestServer(t, searcher, 5)

	result, _, err := server.handleFindSimilar(context.Background(), nil, findSimilarInput{URL: "", NumResults: 5})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "url must not be empty")
	require.Equal(t, 0, searcher.findSimilarCalls)
	require.Equal(t, 0, searches.Len())
}

func TestHandleGetContentsSuccess(t *testing.T) {
	searcher := &fakeSearcher{
		contentsResp: &exa.ContentsResponse{
			RequestID: "req-456",
			Results: []exa.Result{
				{ID: "doc-1", Title: "First", Text: "full text"},
			},
		},
	}
	server, searches := newTestServer(t, searcher, 5)

	result, _, err := server.handleGetContents(context.Background(), nil, getContentsInput{IDs: []string{"doc-1"}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, []string{"doc-1"}, searcher.lastIDs)

	var decoded exa.ContentsResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	require.Equal(t, "req-456", decoded.RequestID)

	require.Equal(t, 0, searches.Len(), "content fetches are not searches and must not be cached")
}

func TestHandleGetContentsInvalidArguments(t *testing.T) {
	cases := []struct {
		name string
		ids  []string
	}{
		{"nil ids", nil},
		{"empty ids", []string{}},
		{"blank id", []string{"doc-1", "  "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			server, _ := newTestServer(t, searcher, 5)

			result, _, err := server.handleGetContents(context.Background(), nil, getContentsInput{IDs: tc.ids})
			require.NoError(t, err)
			require.True(t, result.IsError)
			require.Contains(t, resultText(t, result), "invalid argument")
			require.Equal(t, 0, searcher.getContentsCalls)
		})
	}
}

func TestHandleGetContentsUpstreamError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	server, _ := newTestServer(t, searcher, 5)

	result, _, err := server.handleGetContents(context.Background(), nil, getContentsInput{IDs: []string{"doc-1"}})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "connection refused")
}

func TestSearchEvictionAtCapacity(t *testing.T) {
	searcher := &fakeSearcher{searchResp: sampleSearchResponse()}
	server, searches := newTestServer(t, searcher, 2)

	for _, q := range []string{"a", "b", "c"} {
		_, _, err := server.handleSearch(context.Background(), nil, searchInput{Query: q})
		require.NoError(t, err)
	}

	require.Equal(t, 2, searches.Len())
	first, ok := searches.Get(0)
	require.True(t, ok)
	require.Equal(t, "b", first.QueryOrURL)
	second, ok := searches.Get(1)
	require.True(t, ok)
	require.Equal(t, "c", second.QueryOrURL)
}

func TestValidateSearchArgs(t *testing.T) {
	n, errResult := validateSearchArgs("query text", "query", 0)
	require.Nil(t, errResult)
	require.Equal(t, defaultNumResults, n)

	n, errResult = validateSearchArgs("query text", "query", 50)
	require.Nil(t, errResult)
	require.Equal(t, 50, n)

	_, errResult = validateSearchArgs("query text", "query", 51)
	require.NotNil(t, errResult)
	require.True(t, errResult.IsError)

	_, errResult = validateSearchArgs("", "query", 10)
	require.NotNil(t, errResult)
	require.True(t, errResult.IsError)
}

func TestParseTransport(t *testing.T) {
	for name, want := range map[string]Transport{
		"stdio": TransportStdio,
		"http":  TransportHTTP,
		"sse":   TransportSSE,
		"HTTP":  TransportHTTP,
		" sse ": TransportSSE,
	} {
		got, err := ParseTransport(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseTransport("websocket")
	require.Error(t, err)
	_, err = ParseTransport("")
	require.Error(t, err)
}
