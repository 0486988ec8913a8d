package mcpserver

import (
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DualTransportHandler routes requests on one path to either the streamable
// HTTP handler or the SSE handler, so clients using either transport can
// share the /mcp endpoint when the server runs in http mode.
type DualTransportHandler struct {
	streamable *mcp.StreamableHTTPHandler
	sse        *mcp.SSEHandler
}

// NewDualTransportHandler creates a new DualTransportHandler.
func NewDualTransportHandler(getServer func(*http.Request) *mcp.Server) *DualTransportHandler {
	return &DualTransportHandler{
		streamable: mcp.NewStreamableHTTPHandler(getServer, nil),
		sse:        mcp.NewSSEHandler(getServer, nil),
	}
}

// ServeHTTP dispatches to the right transport by inspecting method, headers,
// and query.
func (h *DualTransportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// SSE session message POSTs carry a sessionid query parameter.
	if r.Method == http.MethodPost && r.URL.Query().Has("sessionid") {
		h.sse.ServeHTTP(w, r)
		return
	}

	// GET with Accept including text/event-stream starts an SSE session.
	if r.Method == http.MethodGet {
		accept := strings.Split(strings.Join(r.Header.Values("Accept"), ","), ",")
		for _, c := range accept {
			c = strings.TrimSpace(c)
			if c == "text/event-stream" || strings.HasPrefix(c, "text/") || c == "*/*" {
				h.sse.ServeHTTP(w, r)
				return
			}
		}
		// Fallback to streamable (may 405 for GET without session).
		h.streamable.ServeHTTP(w, r)
		return
	}

	// DELETE and POST without sessionid belong to the streamable transport.
	h.streamable.ServeHTTP(w, r)
}
