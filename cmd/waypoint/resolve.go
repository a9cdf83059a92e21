package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/script"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/routepath"
	"github.com/vango-dev/waypoint/pkg/router"
)

func resolveCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve URL...",
		Short: "Resolve paths against the route tree",
		Long: `Resolve one or more paths against the route tree, following
redirects the way a navigation would.

Examples:
  waypoint resolve /blog/42
  waypoint resolve "/search?q=go" /old-blog
  waypoint resolve --json /docs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, tree, err := opts.load()
			if err != nil {
				return err
			}
			return runResolve(cmd.OutOrStdout(), cfg, tree, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

type resolution struct {
	URL   string              `json:"url"`
	Names []string            `json:"names,omitempty"`
	State *router.RouterState `json:"state,omitempty"`
	Code  string              `json:"code,omitempty"`
	Error string              `json:"error,omitempty"`
}

func runResolve(w io.Writer, cfg *config.Config, tree *router.Segment, urls []string, asJSON bool) error {
	results := make([]resolution, 0, len(urls))
	failed := 0
	for _, u := range urls {
		res := resolveOne(cfg, tree, u)
		if res.Code != "" {
			failed++
		}
		results = append(results, res)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.State != nil {
				fmt.Fprintf(w, "%s\t%s\n", res.URL, script.FormatState(res.State))
			}
			if res.Code != "" {
				fmt.Fprintf(w, "%s\terror\t%s\t%s\n", res.URL, res.Code, res.Error)
			}
		}
	}

	if failed > 0 {
		return errors.New("W049").WithDetail(fmt.Sprintf("%d of %d paths failed to resolve", failed, len(urls)))
	}
	return nil
}

// resolveOne settles u on a fresh memory history.
func resolveOne(cfg *config.Config, tree *router.Segment, u string) resolution {
	res := resolution{URL: u}

	path, query := routepath.SplitPathAndQuery(u)
	canonical, err := routepath.ValidateNavPath(path)
	if err != nil {
		we := errors.New("W080").Wrap(err)
		res.Code, res.Error = we.Code, err.Error()
		return res
	}
	if query != nil {
		canonical += "?" + *query
	}

	var navErr error
	svc := navigation.NewService(tree, history.NewMemory(canonical),
		navigation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		navigation.WithMaxRedirects(cfg.Navigation.MaxRedirects),
		navigation.WithFallback(fallbackContent(cfg)),
		navigation.WithErrorHandler(func(err error) { navErr = err }),
	)

	st := svc.State()
	res.State = st
	res.Names = st.Names.Sorted()
	if navErr != nil {
		we := errors.FromNavigation(navErr)
		res.Code, res.Error = we.Code, navErr.Error()
	}
	return res
}
