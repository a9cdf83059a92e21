package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

const sampleRoutes = `# Route tree for waypoint.
index: home
routes:
  - path: blog
    nested:
      index: blog-list
      variable:
        key: id
        name: post
        content: blog-post
  - path: about
    name: about
    content: about
  - path: docs
    content:
      main: docs
      slots:
        sidebar: docs-nav
  - path: old-blog
    content:
      redirect: /blog
fallback: not-found
`

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create waypoint.json and a sample routes file",
		Long: `Create waypoint.json with default settings and a sample
routes.yaml in the given directory (default: current directory).

Examples:
  waypoint init
  waypoint init ./nav
  waypoint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func runInit(dir string, force bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.New("W080").Wrap(err)
	}

	if config.Exists(dir) && !force {
		return errors.New("W080").
			WithDetail(filepath.Join(dir, config.ConfigFileName) + " already exists").
			WithSuggestion("Use --force to overwrite it")
	}

	cfg := config.New()
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		return err
	}
	success("Created %s", cfg.Path())

	routes := filepath.Join(dir, cfg.Routes)
	if _, err := os.Stat(routes); err == nil && !force {
		warn("Kept existing %s", routes)
		return nil
	}
	if err := os.WriteFile(routes, []byte(sampleRoutes), 0644); err != nil {
		return errors.New("W080").Wrap(err)
	}
	success("Created %s", routes)
	info("Try: waypoint routes")
	return nil
}
