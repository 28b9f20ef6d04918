package main

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-cms/internal/mcp"
)

// NewMCPCommand creates the mcp command
func NewMCPCommand() *cobra.Command {
	var mode string
	var baseURL string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve content types and live content over the Model Context Protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := cfg.Build(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			s := server.NewMCPServer(
				"Simple CMS Mcp",
				version,
				server.WithResourceCapabilities(true, true),
			)
			mcp.NewHandler(rt.Service).RegisterTools(s)

			addr := fmt.Sprintf(":%s", cfg.Port)
			switch mode {
			case "sse":
				if baseURL == "" {
					baseURL = "http://localhost" + addr
				}
				slog.Info("Starting SSE server", "base url", baseURL)
				return server.NewSSEServer(s, server.WithBaseURL(baseURL)).Start(addr)
			case "http":
				slog.Info("HTTP server listening", "port", cfg.Port)
				return server.NewStreamableHTTPServer(s).Start(addr)
			case "stdio":
				slog.Info("Starting in stdio mode")
				return server.ServeStdio(s)
			default:
				return fmt.Errorf("unknown mode %q: use stdio, sse or http", mode)
			}
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "stdio", "server mode: 'stdio', 'sse', or 'http'")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL of the SSE server")

	return cmd
}
