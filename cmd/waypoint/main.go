package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┬ ┬┌─┐┌─┐┬┌┐┌┌┬┐
  ║║║├─┤└┬┘├─┘│ │││││ │
  ╚╩╝┴ ┴ ┴ ┴  └─┘┴┘└┘ ┴
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Route trees and navigation for Go applications",
		Long: `Waypoint resolves paths against a declared route tree and runs
navigation for connected hosts.

  • Route trees declared in YAML
  • Named routes with parameters
  • Redirects with loop detection
  • Push, replace, back and forward with pluggable history
  • WebSocket host server with metrics and tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to waypoint.json (default: nearest in working directory)")
	rootCmd.PersistentFlags().StringVarP(&opts.routesPath, "routes", "r", "", "Routes file (default from waypoint.json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(
		initCmd(),
		resolveCmd(opts),
		routesCmd(opts),
		simulateCmd(opts),
		serveCmd(opts),
		versionCmd(opts),
	)

	return rootCmd
}

// printBanner prints the Waypoint ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

