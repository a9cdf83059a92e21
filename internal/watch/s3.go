package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/waypoint/pkg/router"
)

// DefaultPollInterval is how often an S3 routes object is checked.
const DefaultPollInterval = 30 * time.Second

// ObjectAPI is the part of the S3 client used to read routes objects.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Location names a routes object.
type S3Location struct {
	Bucket string
	Key    string
}

func (l S3Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Key
}

// ParseS3URL parses "s3://bucket/key". ok is false for anything that is
// not an s3 URL.
func ParseS3URL(raw string) (loc S3Location, ok bool, err error) {
	if !strings.HasPrefix(raw, "s3://") {
		return S3Location{}, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return S3Location{}, true, err
	}
	loc = S3Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	if loc.Bucket == "" || loc.Key == "" {
		return S3Location{}, true, fmt.Errorf("s3 url %q needs a bucket and a key", raw)
	}
	return loc, true, nil
}

// S3ClientConfig configures NewS3Client.
type S3ClientConfig struct {
	// Region defaults to $AWS_REGION, then us-east-1.
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string

	// UsePathStyle addresses buckets as path segments.
	UsePathStyle bool
}

// ErrNoCredentials is returned when the AWS credential variables are unset.
var ErrNoCredentials = errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")

// NewS3Client creates a client that reads credentials from the standard
// AWS environment variables.
func NewS3Client(cfg S3ClientConfig) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, ErrNoCredentials
			}
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		})),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// FetchS3 downloads and decodes a routes object. It returns the tree and
// the object's ETag.
func FetchS3(ctx context.Context, client ObjectAPI, loc S3Location) (*router.Segment, string, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", loc, err)
	}
	defer out.Body.Close()

	tree, err := router.LoadYAML(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", loc, err)
	}
	return tree, aws.ToString(out.ETag), nil
}

// S3Options configures an S3RoutesWatcher.
type S3Options struct {
	Interval time.Duration
	Logger   *slog.Logger

	// ETag is the tag of the tree already in use, if any.
	ETag string
}

// S3RoutesWatcher polls a routes object and hands every valid new tree to
// a callback. A change is detected by the object's ETag.
type S3RoutesWatcher struct {
	client   ObjectAPI
	loc      S3Location
	onReload func(*router.Segment)
	interval time.Duration
	logger   *slog.Logger
	etag     string
}

// NewS3Routes creates a watcher for the routes object at loc.
func NewS3Routes(client ObjectAPI, loc S3Location, onReload func(*router.Segment), opts S3Options) *S3RoutesWatcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &S3RoutesWatcher{
		client:   client,
		loc:      loc,
		onReload: onReload,
		interval: opts.Interval,
		logger:   opts.Logger.With("component", "watch", "object", loc.String()),
		etag:     opts.ETag,
	}
}

// Run polls until ctx is done. Failed polls are logged and retried on the
// next tick.
func (w *S3RoutesWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("polling routes", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("routes reload failed", "error", err)
			}
		}
	}
}

// Poll checks the object once and reloads it when its ETag changed.
func (w *S3RoutesWatcher) Poll(ctx context.Context) error {
	head, err := w.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(w.loc.Bucket),
		Key:    aws.String(w.loc.Key),
	})
	if err != nil {
		return fmt.Errorf("head %s: %w", w.loc, err)
	}
	if etag := aws.ToString(head.ETag); etag != "" && etag == w.etag {
		return nil
	}

	tree, etag, err := FetchS3(ctx, w.client, w.loc)
	if err != nil {
		return err
	}
	if err := router.Validate(tree); err != nil {
		// Remember the tag so a broken object is reported once.
		w.etag = etag
		return err
	}
	w.etag = etag
	w.onReload(tree)
	w.logger.Info("routes reloaded", "etag", etag, "routes", len(router.Walk(tree)))
	return nil
}
