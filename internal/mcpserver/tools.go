package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/exa"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/metrics"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

const (
	defaultNumResults = 10
	minNumResults     = 1
	maxNumResults     = 50
)

// searchInput defines the parameters for the search tool.
type searchInput struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results,omitempty"`
}

// findSimilarInput defines the parameters for the find_similar tool.
type findSimilarInput struct {
	URL        string `json:"url"`
	NumResults int    `json:"num_results,omitempty"`
}

// getContentsInput defines the parameters for the get_contents tool.
type getContentsInput struct {
	IDs []string `json:"ids"`
}

// emptyOutput — tool results are returned as JSON text content.
type emptyOutput struct{}

// registerTools registers the three Exa tools with the SDK server.
func (s *Server) registerTools() {
	mcp.AddTool(s.sdkServer, &mcp.Tool{
		Name:        "search",
		Description: "Search the web using Exa AI. Returns results with titles, URLs, and text content.",
		InputSchema: searchInputSchema(),
	}, s.handleSearch)

	mcp.AddTool(s.sdkServer, &mcp.Tool{
		Name:        "find_similar",
		Description: "Find content similar to a given URL using Exa AI.",
		InputSchema: findSimilarInputSchema(),
	}, s.handleFindSimilar)

	mcp.AddTool(s.sdkServer, &mcp.Tool{
		Name:        "get_contents",
		Description: "Get the contents of specific documents by their Exa IDs.",
		InputSchema: getContentsInputSchema(),
	}, s.handleGetContents)
}

// handleSearch validates input, calls the Exa API, caches the outcome, and
// returns the upstream response as indented JSON.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, emptyOutput, error) {
	metrics.RecordInvocation(metrics.ModeSearch)

	numResults, errResult := validateSearchArgs(input.Query, "query", input.NumResults)
	if errResult != nil {
		return errResult, emptyOutput{}, nil
	}

	resp, err := s.searcher.Search(ctx, input.Query, numResults)
	if err != nil {
		s.logger.Printf("search failed for %q: %v", input.Query, err)
		return errorResult(err), emptyOutput{}, nil
	}

	s.searches.Append(newSearchRecord(types.RecordKindSearch, input.Query, resp))
	s.logger.Printf("search %q returned %d results (cache size: %d)", input.Query, len(resp.Results), s.searches.Len())

	return jsonResult(resp), emptyOutput{}, nil
}

// handleFindSimilar is analogous to handleSearch, keyed by URL.
func (s *Server) handleFindSimilar(ctx context.Context, _ *mcp.CallToolRequest, input findSimilarInput) (*mcp.CallToolResult, emptyOutput, error) {
	metrics.RecordInvocation(metrics.ModeFindSimilar)

	numResults, errResult := validateSearchArgs(input.URL, "url", input.NumResults)
	if errResult != nil {
		return errResult, emptyOutput{}, nil
	}

	resp, err := s.searcher.FindSimilar(ctx, input.URL, numResults)
	if err != nil {
		s.logger.Printf("find_similar failed for %q: %v", input.URL, err)
		return errorResult(err), emptyOutput{}, nil
	}

	s.searches.Append(newSearchRecord(types.RecordKindFindSimilar, input.URL, resp))
	s.logger.Printf("find_similar %q returned %d results (cache size: %d)", input.URL, len(resp.Results), s.searches.Len())

	return jsonResult(resp), emptyOutput{}, nil
}

// handleGetContents fetches document contents by ID. A content fetch is not a
// search, so it never writes to the cache.
func (s *Server) handleGetContents(ctx context.Context, _ *mcp.CallToolRequest, input getContentsInput) (*mcp.CallToolResult, emptyOutput, error) {
	metrics.RecordInvocation(metrics.ModeGetContents)

	if len(input.IDs) == 0 {
		return invalidArgumentResult("ids must not be empty"), emptyOutput{}, nil
	}
	for _, id := range input.IDs {
		if strings.TrimSpace(id) == "" {
			return invalidArgumentResult("ids must not contain empty values"), emptyOutput{}, nil
		}
	}

	resp, err := s.searcher.GetContents(ctx, input.IDs)
	if err != nil {
		s.logger.Printf("get_contents failed for %d ids: %v", len(input.IDs), err)
		return errorResult(err), emptyOutput{}, nil
	}

	return jsonResult(resp), emptyOutput{}, nil
}

// validateSearchArgs checks the shared subject/num_results constraints of the
// search and find_similar tools. It returns the effective result count, or an
// error result when a constraint is violated.
func validateSearchArgs(subject, subjectName string, numResults int) (int, *mcp.CallToolResult) {
	if strings.TrimSpace(subject) == "" {
		return 0, invalidArgumentResult(fmt.Sprintf("%s must not be empty", subjectName))
	}

	if numResults == 0 {
		return defaultNumResults, nil
	}
	if numResults < minNumResults || numResults > maxNumResults {
		return 0, invalidArgumentResult(fmt.Sprintf("num_results must be between %d and %d, got %d", minNumResults, maxNumResults, numResults))
	}
	return numResults, nil
}

// newSearchRecord builds the immutable cache entry for a successful call.
func newSearchRecord(kind types.RecordKind, subject string, resp *exa.SearchResponse) types.SearchRecord {
	items := make([]types.ResultItem, len(resp.Results))
	for i, r := range resp.Results {
		items[i] = types.ResultItem{
			ID:            r.ID,
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Text,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
			Author:        r.Author,
		}
	}

	return types.SearchRecord{
		ID:         uuid.NewString(),
		Kind:       kind,
		QueryOrURL: subject,
		Timestamp:  time.Now().UTC(),
		RequestID:  resp.RequestID,
		Results:    items,
	}
}

// jsonResult renders a successful upstream response as indented JSON text.
func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("failed to marshal response: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// invalidArgumentResult reports a caller-side constraint violation.
func invalidArgumentResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("invalid argument: %s", message)}},
	}
}

// errorResult reports an upstream failure with its detail passed through.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// Tool input schemas are declared explicitly so the range constraints are
// visible to clients, not just enforced server-side.

func searchInputSchema() *jsonschema.Schema {
	return mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query to execute",
				"minLength":   1,
			},
			"num_results": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results to return (1-50, default 10)",
				"minimum":     minNumResults,
				"maximum":     maxNumResults,
				"default":     defaultNumResults,
			},
		},
		"required": []string{"query"},
	})
}

func findSimilarInputSchema() *jsonschema.Schema {
	return mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to find similar content for",
				"minLength":   1,
			},
			"num_results": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results to return (1-50, default 10)",
				"minimum":     minNumResults,
				"maximum":     maxNumResults,
				"default":     defaultNumResults,
			},
		},
		"required": []string{"url"},
	})
}

func getContentsInputSchema() *jsonschema.Schema {
	return mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ids": map[string]interface{}{
				"type":        "array",
				"description": "Exa document IDs to retrieve content for",
				"items":       map[string]interface{}{"type": "string"},
				"minItems":    1,
			},
		},
		"required": []string{"ids"},
	})
}

// mustSchema converts a plain JSON schema definition into the SDK schema type.
func mustSchema(def map[string]interface{}) *jsonschema.Schema {
	data, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("mcpserver: invalid tool schema: %v", err))
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		panic(fmt.Sprintf("mcpserver: invalid tool schema: %v", err))
	}
	return &schema
}
