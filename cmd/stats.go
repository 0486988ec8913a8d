package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/metrics"
)

var statsDBPath string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative tool and resource invocation counts",
	Long: `
Show cumulative invocation counts recorded by the MCP server, broken down
by mode (search, find_similar, get_contents, resource). Counts are stored
in a local SQLite database.
`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsDBPath, "db", "", "Path to the metrics database (default: ~/.exa-mcp-server/stats.db)")
}

func runStats(cmd *cobra.Command, args []string) error {
	var (
		store *metrics.Store
		err   error
	)
	if statsDBPath == "" {
		store, err = metrics.NewStore()
	} else {
		store, err = metrics.NewStoreWithPath(statsDBPath)
	}
	if err != nil {
		return fmt.Errorf("failed to open metrics store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	totals, err := store.GetAllTotals()
	if err != nil {
		return fmt.Errorf("failed to read invocation totals: %w", err)
	}

	fmt.Println("Invocation totals:")
	var sum int64
	for _, mode := range metrics.AllModes {
		count := totals[mode]
		fmt.Printf("  %-14s %d\n", mode, count)
		sum += count
	}
	fmt.Printf("  %-14s %d\n", "total", sum)

	return nil
}
