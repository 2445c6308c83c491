package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cocanvas",
		Short: "Real-time collaboration server for co-canvas",
		Long: `cocanvas runs the sync backend for the co-canvas whiteboard.

Clients join rooms over WebSocket, exchange document updates and
presence, and late joiners receive the room's current state. The
server also handles asset uploads and canvas snapshot storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
