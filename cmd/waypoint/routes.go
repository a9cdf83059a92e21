package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/pkg/router"
)

func routesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List and validate the route tree",
		Long: `Load the routes file, validate it and list every route in
match order.

Examples:
  waypoint routes
  waypoint routes --routes ./routes.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, tree, err := opts.load()
			if err != nil {
				return err
			}
			if err := printRoutes(cmd.OutOrStdout(), tree); err != nil {
				return err
			}
			success("%s is valid", opts.routes(cfg))
			return nil
		},
	}

	return cmd
}

func printRoutes(w io.Writer, tree *router.Segment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN\tKIND\tNAME\tCONTENT")
	for _, r := range router.Walk(tree) {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Pattern, r.Kind, name, router.DescribeContent(r.Content))
	}
	return tw.Flush()
}
