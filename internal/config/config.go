package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/waypoint/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "waypoint.json"

	// DefaultRoutes is the default route declaration file.
	DefaultRoutes = "routes.yaml"

	// DefaultMaxRedirects matches navigation.DefaultMaxRedirects.
	DefaultMaxRedirects = 32

	// DefaultAddress is the default server listen address.
	DefaultAddress = ":8080"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "waypoint"
)

// Config represents the complete waypoint.json configuration.
type Config struct {
	// Routes is the path to the YAML route declaration file.
	Routes string `json:"routes" validate:"required"`

	// Navigation configures the navigation service.
	Navigation NavigationConfig `json:"navigation"`

	// History configures the history provider used by the CLI.
	History HistoryConfig `json:"history"`

	// Server configures `waypoint serve`.
	Server ServerConfig `json:"server"`

	// Telemetry configures metrics and tracing middleware.
	Telemetry TelemetryConfig `json:"telemetry"`

	// S3 configures routes files given as s3://bucket/key.
	S3 S3Config `json:"s3"`

	configPath string
}

// NavigationConfig contains navigation service settings.
type NavigationConfig struct {
	// MaxRedirects bounds redirect chains per drain cycle.
	MaxRedirects int `json:"maxRedirects,omitempty" validate:"gte=0,lte=1024"`

	// InitialPath is the starting path of new histories.
	InitialPath string `json:"initialPath,omitempty" validate:"navpath"`

	// Fallback is the content id shown for unmatched paths.
	Fallback string `json:"fallback,omitempty"`
}

// HistoryConfig contains history provider settings.
type HistoryConfig struct {
	// MaxEntries caps the back stack. Zero means unbounded.
	MaxEntries int `json:"maxEntries,omitempty" validate:"gte=0"`

	// StorePath is a badger directory for persistent history. Empty keeps
	// history in memory.
	StorePath string `json:"storePath,omitempty"`

	// SyncWrites makes every history write durable before returning.
	SyncWrites bool `json:"syncWrites,omitempty"`
}

// ServerConfig contains HTTP and WebSocket server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty" validate:"required"`

	// WSPath is the WebSocket endpoint.
	WSPath string `json:"wsPath,omitempty" validate:"required,urlpath"`

	// MetricsPath serves Prometheus metrics. Empty disables it.
	MetricsPath string `json:"metricsPath,omitempty" validate:"omitempty,urlpath"`

	// Prefix is the path prefix the routes are mounted below on the host.
	Prefix string `json:"prefix,omitempty" validate:"omitempty,urlpath"`

	// RateLimit is host messages per second per connection. Zero disables.
	RateLimit float64 `json:"rateLimit,omitempty" validate:"gte=0"`

	// RateBurst is the burst size for RateLimit.
	RateBurst int `json:"rateBurst,omitempty" validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "30s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" validate:"omitempty,duration"`

	// WatchRoutes reloads the routes file when it changes.
	WatchRoutes bool `json:"watchRoutes,omitempty"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Metrics enables the Prometheus middleware.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing enables the OpenTelemetry middleware.
	Tracing bool `json:"tracing,omitempty"`

	// Namespace is the Prometheus namespace.
	Namespace string `json:"namespace,omitempty"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `json:"tracerName,omitempty"`

	// TraceExporter is "none", "stdout" or "otlp".
	TraceExporter string `json:"traceExporter,omitempty" validate:"omitempty,oneof=none stdout otlp"`

	// OTLPEndpoint is the OTLP gRPC receiver for the otlp exporter.
	OTLPEndpoint string `json:"otlpEndpoint,omitempty" validate:"omitempty,hostname_port"`

	// OTLPInsecure disables TLS for the otlp exporter.
	OTLPInsecure bool `json:"otlpInsecure,omitempty"`
}

// S3Config contains settings for routes stored in S3. Credentials come from
// the AWS environment variables.
type S3Config struct {
	// Region defaults to $AWS_REGION.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (e.g., a MinIO URL).
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`

	// UsePathStyle addresses buckets as path segments.
	UsePathStyle bool `json:"usePathStyle,omitempty"`

	// PollInterval is how often a watched object is checked (e.g., "30s").
	PollInterval string `json:"pollInterval,omitempty" validate:"omitempty,duration"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Routes: DefaultRoutes,
		Navigation: NavigationConfig{
			MaxRedirects: DefaultMaxRedirects,
			InitialPath:  "/",
		},
		Server: ServerConfig{
			Address:         DefaultAddress,
			WSPath:          "/ws",
			MetricsPath:     "/metrics",
			RateLimit:       20,
			RateBurst:       40,
			ShutdownTimeout: "30s",
		},
		Telemetry: TelemetryConfig{
			Metrics:    true,
			Namespace:     DefaultNamespace,
			TracerName:    DefaultNamespace,
			TraceExporter: "stdout",
			OTLPEndpoint:  "localhost:4317",
		},
	}
}

// Load loads waypoint.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from path, applies defaults and validates
// the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W003").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'waypoint init' or pass --routes to use a routes file directly")
		}
		return nil, errors.New("W001").Wrap(err)
	}

	cfg := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		werr := errors.New("W001").
			Wrap(err).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON with known keys")
		var syntax *json.SyntaxError
		if stderrors.As(err, &syntax) {
			line, col := position(data, syntax.Offset)
			werr.WithLocation(path, line, col)
		}
		return nil, werr
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line = bytes.Count(before, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(before, '\n')
	return line, col
}

// Save saves the configuration to the path it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("W001").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W001").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in zero values.
func (c *Config) applyDefaults() {
	if c.Routes == "" {
		c.Routes = DefaultRoutes
	}
	if c.Navigation.MaxRedirects == 0 {
		c.Navigation.MaxRedirects = DefaultMaxRedirects
	}
	if c.Navigation.InitialPath == "" {
		c.Navigation.InitialPath = "/"
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = "/ws"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Telemetry.TracerName == "" {
		c.Telemetry.TracerName = DefaultNamespace
	}
	if c.Telemetry.TraceExporter == "" {
		c.Telemetry.TraceExporter = "stdout"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("urlpath", validateURLPath)
	_ = v.RegisterValidation("navpath", validateNavPath)
	_ = v.RegisterValidation("duration", validateDuration)
	return v
}

// validateURLPath accepts absolute paths without a query.
func validateURLPath(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && !strings.ContainsAny(s, "?# ")
}

// validateNavPath accepts absolute paths with an optional query.
func validateNavPath(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//")
}

func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New("W002").Wrap(err)
	}

	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			lines = append(lines, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			lines = append(lines, fmt.Sprintf("%s: failed %s (got %q)", field, fe.Tag(), fmt.Sprint(fe.Value())))
		}
	}
	return errors.New("W002").
		WithDetail(strings.Join(lines, "; ")).
		Wrap(err)
}

// RoutesPath returns the absolute routes file path. URLs such as
// s3://bucket/key are returned unchanged.
func (c *Config) RoutesPath() string {
	if strings.Contains(c.Routes, "://") {
		return c.Routes
	}
	return c.resolve(c.Routes)
}

// StorePath returns the absolute history store path, or "" for in-memory
// history.
func (c *Config) StorePath() string {
	if c.History.StorePath == "" {
		return ""
	}
	return c.resolve(c.History.StorePath)
}

// ShutdownTimeout returns the parsed server shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// S3PollInterval returns the parsed S3 poll interval, or 30s.
func (c *Config) S3PollInterval() time.Duration {
	d, err := time.ParseDuration(c.S3.PollInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a waypoint.json exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing waypoint.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("W003").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'waypoint init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest waypoint.json at
// or above the working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
