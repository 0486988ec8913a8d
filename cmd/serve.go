package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/cache"
	appcfg "github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/config"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/exa"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/mcpserver"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/metrics"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/observability"
)

var (
	// Command line flags for the MCP server
	serveTransport       string
	serveHost            string
	servePort            int
	serveCacheSize       int
	serveAllowedIPs      []string
	serveEnableIPAuth    bool
	serveEnableAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Exa search MCP server",
	Long: `
Start an MCP server that exposes Exa web search as tools that can be used
by MCP-compatible clients like Claude Desktop, IDEs, and other applications.

The server provides "search", "find_similar" and "get_contents" tools backed
by the Exa AI API, and publishes recent searches under the exa://searches
resource URIs.

Configuration is loaded from environment variables (see README for details).

Examples:
  exa-mcp-server serve                                 # stdio transport (default)
  exa-mcp-server serve --transport http --port 9000    # streamable HTTP
  exa-mcp-server serve --transport sse                 # SSE transport
  exa-mcp-server serve --transport http --enable-ip-auth --allowed-ips "192.168.1.0/24"
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "stdio", "Transport to serve: stdio|http|sse")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host address (http/sse only)")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Server port (http/sse only)")
	serveCmd.Flags().IntVar(&serveCacheSize, "cache-size", cache.DefaultCapacity, "Number of recent searches to keep")
	serveCmd.Flags().StringSliceVar(&serveAllowedIPs, "allowed-ips", []string{"127.0.0.1", "::1"}, "Comma-separated list of allowed IP addresses/ranges")
	serveCmd.Flags().BoolVar(&serveEnableIPAuth, "enable-ip-auth", false, "Enable IP-based authentication (http/sse only)")
	serveCmd.Flags().BoolVar(&serveEnableAccessLog, "enable-access-log", true, "Enable HTTP access logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override configuration with command line flags if provided
	if cmd.Flags().Changed("host") {
		cfg.ServerHost = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.ServerPort = servePort
	}
	if cmd.Flags().Changed("cache-size") {
		cfg.CacheSize = serveCacheSize
	}
	if cmd.Flags().Changed("allowed-ips") {
		cfg.AllowedIPs = serveAllowedIPs
	}
	if cmd.Flags().Changed("enable-ip-auth") {
		cfg.IPAuthEnabled = serveEnableIPAuth
	}
	if cmd.Flags().Changed("enable-access-log") {
		cfg.AccessLogEnabled = serveEnableAccessLog
	}

	transport, err := mcpserver.ParseTransport(serveTransport)
	if err != nil {
		return err
	}

	// stdio uses stdout for the protocol, so all logging goes to stderr.
	logger := log.New(os.Stderr, "[MCP Server] ", log.LstdFlags)

	shutdownObservability, err := observability.Init(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObservability(shutdownCtx); err != nil {
			logger.Printf("observability shutdown failed: %v", err)
		}
	}()

	if err := metrics.Init(cfg.MetricsDBPath); err != nil {
		logger.Printf("invocation metrics disabled: %v", err)
	} else {
		defer func() {
			if err := metrics.Close(); err != nil {
				logger.Printf("failed to close metrics store: %v", err)
			}
		}()
		if err := metrics.InitOTelMetrics(); err != nil {
			logger.Printf("OTel invocation gauge disabled: %v", err)
		}
	}

	exaClient, err := exa.NewClient(&exa.Config{
		APIKey:          cfg.ExaAPIKey,
		BaseURL:         cfg.ExaBaseURL,
		Timeout:         cfg.ExaTimeout,
		RateLimit:       cfg.ExaRateLimit,
		RateBurst:       cfg.ExaRateBurst,
		MaxIdleConns:    cfg.ExaMaxIdleConns,
		IdleConnTimeout: cfg.ExaIdleConnTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create Exa client: %w", err)
	}
	exaClient.SetLogger(log.New(os.Stderr, "[ExaClient] ", log.LstdFlags))

	searches := cache.New(cfg.CacheSize)

	server, err := mcpserver.NewServer(exaClient, searches, cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	server.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Run(ctx, transport)
	})

	logger.Printf("Exa MCP server started (transport=%s, cache capacity=%d)", transport, searches.Capacity())

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Printf("Exa MCP server stopped")
	return nil
}
