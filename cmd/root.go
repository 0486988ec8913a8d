package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "exa-mcp-server",
	Short: "MCP server exposing Exa web search as tools and resources",
	Long: `exa-mcp-server is an MCP (Model Context Protocol) server that exposes
the Exa AI search API as tools (search, find_similar, get_contents)
and publishes a bounded cache of recent searches as MCP resources.

The server runs over stdio, streamable HTTP, or SSE, one transport per
process.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
}
