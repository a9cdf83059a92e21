package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd(opts *globalOptions) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and project information",
		Long: `Print the waypoint version and build, followed by the project the
command would run against: the config file, the routes source and the
navigation limits.`,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, version)
				return
			}
			printBanner()
			writeVersion(w, opts)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	return cmd
}

// writeVersion prints build details and the resolved project settings. A
// config that fails to load is reported in place of the settings.
func writeVersion(w io.Writer, opts *globalOptions) {
	fmt.Fprintf(w, "\n  waypoint %s (%s, built %s)\n", version, commit, date)
	fmt.Fprintf(w, "  %s %s/%s\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	cfg, err := opts.loadConfig()
	if err != nil {
		fmt.Fprintf(w, "  Config:        error: %v\n\n", err)
		return
	}
	source := cfg.Path()
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(w, "  Config:        %s\n", source)
	fmt.Fprintf(w, "  Routes:        %s\n", opts.routes(cfg))
	fmt.Fprintf(w, "  Max redirects: %d\n", cfg.Navigation.MaxRedirects)
	if store := cfg.History.StorePath; store != "" {
		fmt.Fprintf(w, "  History store: %s\n", store)
	}
	fmt.Fprintln(w)
}
