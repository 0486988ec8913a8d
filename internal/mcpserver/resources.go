package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/metrics"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

const uriScheme = "exa://"

// registerResources exposes the recent-search cache over the MCP resource
// address space: a listing plus an index-addressed lookup.
func (s *Server) registerResources() {
	s.sdkServer.AddResource(&mcp.Resource{
		URI:         uriScheme + "searches",
		Name:        "recent-searches",
		Description: "Summary of recent cached searches",
		MIMEType:    "text/plain",
	}, s.handleSearchesResource)

	s.sdkServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "searches/{index}",
		Name:        "cached-search",
		Description: "A cached search result by its current position (0-based). Positions shift when old entries are evicted.",
		MIMEType:    "application/json",
	}, s.handleSearchByIndexResource)
}

// handleSearchesResource renders a one-entry-per-record summary of the cache.
func (s *Server) handleSearchesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	metrics.RecordInvocation(metrics.ModeResource)

	records := s.searches.List()
	if len(records) == 0 {
		return textResource(req.Params.URI, "No recent searches available."), nil
	}

	var b strings.Builder
	b.WriteString("Recent Searches:\n\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s: %s\n", i, subjectLabel(rec.Kind), rec.QueryOrURL)
		fmt.Fprintf(&b, "   Timestamp: %s\n", rec.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprintf(&b, "   Results: %d items\n\n", len(rec.Results))
	}

	return textResource(req.Params.URI, b.String()), nil
}

// handleSearchByIndexResource returns one cached record fully rendered.
// Out-of-bounds and malformed indices are not-found, not faults.
func (s *Server) handleSearchByIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	metrics.RecordInvocation(metrics.ModeResource)

	index, ok := extractIndex(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, ok := s.searches.Get(index)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling cached search: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func textResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}
}

// subjectLabel names the record subject in the listing: search records cache
// a query, find_similar records cache a URL.
func subjectLabel(kind types.RecordKind) string {
	if kind == types.RecordKindFindSimilar {
		return "URL"
	}
	return "Query"
}

// extractIndex parses the index from a URI like exa://searches/{index}.
func extractIndex(uri string) (int, bool) {
	const prefix = uriScheme + "searches/"

	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}

	index, err := strconv.Atoi(strings.TrimPrefix(uri, prefix))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
