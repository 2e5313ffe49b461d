// Command netgramd runs the UDP server, its WebSocket bridge, and the
// administrative HTTP facade as a single process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "netgramd",
		Short:         "Tag-routed UDP/WebSocket message server",
		Long:          `netgramd runs the UDP message server, its WebSocket bridge, and the administrative HTTP facade as a single process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netgramd %s (%s)\n", version, commit)
		},
	}
}
