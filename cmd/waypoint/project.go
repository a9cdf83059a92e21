package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/watch"
	"github.com/vango-dev/waypoint/pkg/router"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	routesPath string
	verbose    bool
}

// loadConfig loads --config, or the nearest waypoint.json, or defaults when
// there is none.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		return config.New(), nil
	}
	return config.Load(root)
}

// load returns the config and the validated route tree.
func (o *globalOptions) load() (*config.Config, *router.Segment, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	path := o.routes(cfg)
	loc, isS3, err := watch.ParseS3URL(path)
	if err != nil {
		return nil, nil, errors.New("W022").Wrap(err)
	}

	var tree *router.Segment
	if isS3 {
		tree, _, err = loadS3Routes(context.Background(), s3Client(cfg), loc)
	} else {
		tree, err = loadRoutes(path)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, tree, nil
}

// routes returns the routes file path: --routes, else the config's.
func (o *globalOptions) routes(cfg *config.Config) string {
	if o.routesPath != "" {
		return o.routesPath
	}
	return cfg.RoutesPath()
}

func (o *globalOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadRoutes reads and validates a routes file.
func loadRoutes(path string) (*router.Segment, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New("W022").
			WithDetail("No routes file at " + path).
			WithSuggestion("Run 'waypoint init' or pass --routes")
	}

	tree, err := router.LoadYAMLFile(path)
	if err != nil {
		return nil, errors.New("W020").
			WithLocationFromError(path, err).
			Wrap(err)
	}
	if err := router.Validate(tree); err != nil {
		return nil, errors.New("W021").
			WithDetail(path + ": " + err.Error())
	}
	return tree, nil
}

// loadS3Routes fetches and validates a routes object.
func loadS3Routes(ctx context.Context, client watch.ObjectAPI, loc watch.S3Location) (*router.Segment, string, error) {
	tree, etag, err := watch.FetchS3(ctx, client, loc)
	if err != nil {
		return nil, "", errors.New("W020").Wrap(err).
			WithSuggestion("Check the bucket, the key and the AWS_* environment variables")
	}
	if err := router.Validate(tree); err != nil {
		return nil, "", errors.New("W021").
			WithDetail(loc.String() + ": " + err.Error())
	}
	return tree, etag, nil
}

func s3Client(cfg *config.Config) *s3.Client {
	return watch.NewS3Client(watch.S3ClientConfig{
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
	})
}

// fallbackContent returns the configured fallback, or nil.
func fallbackContent(cfg *config.Config) router.Content {
	if cfg.Navigation.Fallback == "" {
		return nil
	}
	return router.Single{ID: router.ContentID(cfg.Navigation.Fallback)}
}
