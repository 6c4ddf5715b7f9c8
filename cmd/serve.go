package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the camera as tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes window probing,
control clicks and the camera (connect, exposures, image statistics and
previews) as tools. --http additionally serves a REST API for the same camera.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  dslr-remote serve
  dslr-remote serve --transport streamable-http --port 8080
  dslr-remote serve --http :8081 --cache-ttl 0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", 500, "Window state cache TTL in milliseconds (0 to disable)")
	serveCmd.Flags().String("http", "", "Also serve the REST API on this address, e.g. :8081")
	serveCmd.Flags().Int("gain", 0, "Index into the camera's ISO list")
	serveCmd.Flags().Bool("bulb", false, "Hold the shutter open in BULB mode")
	serveCmd.Flags().Bool("auto-delete", false, "Delete camera files after decoding")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	cacheTTLMs, _ := cmd.Flags().GetInt("cache-ttl")

	cfg := MCPConfig{
		Transport: transport,
		Port:      port,
		CacheTTL:  time.Duration(cacheTTLMs) * time.Millisecond,
		HTTPAddr:  appConfig.HTTPAddr,
	}

	srv, err := newMCPServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.close()

	return srv.serve(cfg)
}
