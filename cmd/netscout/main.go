// Netscout is a multi-method network device discovery utility.
//
// It combines active scanning, mDNS/DNS-SD listening, SSDP/UPnP queries,
// and HTTP fingerprinting to build a confidence-scored inventory of the
// devices on a local network, with a focus on smart home equipment.
//
// Usage:
//
//	netscout [command] [flags]
//
// Running without arguments scans the configured default range.
// See 'netscout --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kmorling/netscout/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netscout",
	Short: "Network Device Discovery Utility",
	Long: `A multi-method discovery utility for smart home networks.

Combines an nmap sweep, mDNS/DNS-SD listening, SSDP/UPnP device
description queries, and HTTP signature fingerprinting into a single
confidence-scored device inventory.

If no command is specified, a scan of the configured default range runs.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: scan when no subcommand provided
		return runScan(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netscout %s (commit: %s)\n", version.Version, version.Commit)
	},
}
