// Package mcpserver exposes Exa search operations as MCP tools and the
// recent-search cache as MCP resources, over one of three transports.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/cache"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/exa"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

// Version is the MCP server version reported to clients.
const Version = "0.1.0"

// Transport selects the wire transport the server runs on. Exactly one
// transport is active per process lifetime.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
	TransportSSE   Transport = "sse"
)

// ParseTransport validates a transport name from flags or environment.
func ParseTransport(name string) (Transport, error) {
	switch Transport(strings.ToLower(strings.TrimSpace(name))) {
	case TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	case TransportSSE:
		return TransportSSE, nil
	default:
		return "", fmt.Errorf("invalid transport: %s (allowed: stdio|http|sse)", name)
	}
}

// Searcher is the outbound port to the Exa API. *exa.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) (*exa.SearchResponse, error)
	FindSimilar(ctx context.Context, url string, numResults int) (*exa.SearchResponse, error)
	GetContents(ctx context.Context, ids []string) (*exa.ContentsResponse, error)
}

// Server wires the MCP SDK server to the Exa client and the result cache.
// Both collaborators are injected; the server owns no global state.
type Server struct {
	sdkServer *mcp.Server
	searcher  Searcher
	searches  *cache.RecentSearches
	config    *types.Config
	logger    *log.Logger
}

// NewServer creates an MCP server with the given collaborators.
func NewServer(searcher Searcher, searches *cache.RecentSearches, cfg *types.Config) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher cannot be nil")
	}
	if searches == nil {
		return nil, fmt.Errorf("search cache cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	impl := &mcp.Implementation{
		Name:    "exa-search-server",
		Version: Version,
	}

	s := &Server{
		sdkServer: mcp.NewServer(impl, nil),
		searcher:  searcher,
		searches:  searches,
		config:    cfg,
		logger:    log.New(os.Stderr, "[MCP Server] ", log.LstdFlags),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetLogger sets a custom logger for the server.
func (s *Server) SetLogger(logger *log.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Run serves the selected transport until ctx is cancelled or the client
// disconnects. stdio blocks on the pipe; http and sse run an HTTP server
// with graceful shutdown.
func (s *Server) Run(ctx context.Context, transport Transport) error {
	switch transport {
	case TransportStdio:
		s.logger.Printf("serving MCP over stdio")
		return s.sdkServer.Run(ctx, &mcp.StdioTransport{})
	case TransportHTTP, TransportSSE:
		return s.runHTTP(ctx, transport)
	default:
		return fmt.Errorf("invalid transport: %s", transport)
	}
}

// runHTTP serves either the streamable HTTP transport (with SSE fallback on
// /mcp) or the SSE transport, wrapped in access logging and optional IP auth.
func (s *Server) runHTTP(ctx context.Context, transport Transport) error {
	getServer := func(*http.Request) *mcp.Server { return s.sdkServer }

	mux := http.NewServeMux()
	switch transport {
	case TransportHTTP:
		mux.Handle("/", mcp.NewStreamableHTTPHandler(getServer, nil))
		mux.Handle("/mcp", NewDualTransportHandler(getServer))
	case TransportSSE:
		sse := mcp.NewSSEHandler(getServer, nil)
		mux.Handle("/", sse)
		mux.Handle("/sse", sse)
	}
	mux.HandleFunc("/health", s.handleHealthCheck)

	var handler http.Handler = mux
	if s.config.IPAuthEnabled {
		ipAuth, err := NewIPAuthMiddleware(s.config.AllowedIPs, s.config.AccessLogEnabled)
		if err != nil {
			return fmt.Errorf("failed to create IP authentication middleware: %w", err)
		}
		handler = ipAuth.Middleware(handler)
		s.logger.Printf("IP authentication enabled for: %v", s.config.AllowedIPs)
	}
	if s.config.AccessLogEnabled {
		handler = s.loggingMiddleware(handler)
	}

	httpServer := &http.Server{
		Addr:           s.config.ServerAddress(),
		Handler:        handler,
		ReadTimeout:    s.config.ServerReadTimeout,
		WriteTimeout:   s.config.ServerWriteTimeout,
		IdleTimeout:    s.config.ServerIdleTimeout,
		MaxHeaderBytes: s.config.ServerMaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("serving MCP over %s on %s", transport, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("graceful shutdown failed: %v, forcing close", err)
			_ = httpServer.Close()
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// handleHealthCheck reports liveness for the HTTP transports.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	response := fmt.Sprintf(`{"status":"healthy","version":%q,"cached_searches":%d,"cache_capacity":%d}`,
		Version, s.searches.Len(), s.searches.Capacity())
	if _, err := w.Write([]byte(response)); err != nil {
		s.logger.Printf("failed to write health response: %v", err)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += int64(n)
	return n, err
}

func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := newLoggingResponseWriter(w)
		next.ServeHTTP(lrw, r)

		s.logger.Printf(
			"Request: %s %s status=%d bytes=%d duration=%s remote=%s client_ip=%s user_agent=%q",
			r.Method,
			r.URL.Path,
			lrw.status,
			lrw.size,
			time.Since(start),
			r.RemoteAddr,
			extractClientIPFromRequest(r),
			r.Header.Get("User-Agent"),
		)
	})
}

func extractClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			if candidate := strings.TrimSpace(parts[0]); candidate != "" {
				return candidate
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
