package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appcfg "github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/config"
	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/exa"
)

var (
	searchQuery      string
	searchNumResults int
	searchOutputJSON bool
	similarURL       string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a one-off Exa search from the command line",
	Long: `
Run a single Exa search without starting the MCP server. Useful for
verifying API credentials and inspecting raw results.

Examples:
  exa-mcp-server search -q "golang concurrency patterns"
  exa-mcp-server search -q "vector databases" -n 5 --json
  exa-mcp-server search --similar-to "https://go.dev/blog/pipelines"
`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Text query to search for")
	searchCmd.Flags().IntVarP(&searchNumResults, "num-results", "n", 10, "Number of results to return (1-50)")
	searchCmd.Flags().BoolVarP(&searchOutputJSON, "json", "j", false, "Output results in JSON format")
	searchCmd.Flags().StringVar(&similarURL, "similar-to", "", "Find pages similar to this URL instead of searching")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if searchQuery == "" && similarURL == "" {
		return fmt.Errorf("either --query or --similar-to is required")
	}
	if searchQuery != "" && similarURL != "" {
		return fmt.Errorf("--query and --similar-to are mutually exclusive")
	}
	if searchNumResults < 1 || searchNumResults > 50 {
		return fmt.Errorf("num-results must be between 1 and 50, got %d", searchNumResults)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := exa.NewClient(&exa.Config{
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExaTimeout)
	defer cancel()

	var resp *exa.SearchResponse
	if similarURL != "" {
		resp, err = client.FindSimilar(ctx, similarURL, searchNumResults)
	} else {
		resp, err = client.Search(ctx, searchQuery, searchNumResults)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	return outputSearchResults(resp, searchOutputJSON)
}

func outputSearchResults(resp *exa.SearchResponse, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Found %d results (request %s, resolved type %s)\n\n",
		len(resp.Results), resp.RequestID, resp.ResolvedSearchType)
	for i, r := range resp.Results {
		fmt.Printf("%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.PublishedDate != "" {
			fmt.Printf("   Published: %s\n", r.PublishedDate)
		}
		if r.Score != 0 {
			fmt.Printf("   Score: %.4f\n", r.Score)
		}
		fmt.Println()
	}
	return nil
}
