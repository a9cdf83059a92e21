package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/waypoint/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Routes != DefaultRoutes {
		t.Errorf("Routes = %q, want %q", cfg.Routes, DefaultRoutes)
	}
	if cfg.Navigation.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("MaxRedirects = %d, want %d", cfg.Navigation.MaxRedirects, DefaultMaxRedirects)
	}
	if cfg.Server.Address != DefaultAddress {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, DefaultAddress)
	}
	if !cfg.Telemetry.Metrics {
		t.Error("Telemetry.Metrics should be on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var we *errors.WaypointError
	if !stderrors.As(err, &we) || we.Code != "W003" {
		t.Fatalf("missing config error = %v, want W003", err)
	}

	writeConfig(t, tmpDir, `{
  "routes": "app/routes.yaml",
  "navigation": {"maxRedirects": 8, "fallback": "not-found"},
  "history": {"maxEntries": 50, "storePath": "data/history"},
  "server": {"address": "127.0.0.1:9000", "prefix": "/app", "watchRoutes": true},
  "telemetry": {"tracing": true}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Navigation.MaxRedirects != 8 {
		t.Errorf("MaxRedirects = %d, want 8", cfg.Navigation.MaxRedirects)
	}
	if cfg.Navigation.Fallback != "not-found" {
		t.Errorf("Fallback = %q", cfg.Navigation.Fallback)
	}
	if cfg.Navigation.InitialPath != "/" {
		t.Errorf("InitialPath = %q, want /", cfg.Navigation.InitialPath)
	}
	if cfg.History.MaxEntries != 50 {
		t.Errorf("MaxEntries = %d, want 50", cfg.History.MaxEntries)
	}
	if cfg.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Address = %q", cfg.Server.Address)
	}
	// Unset keys keep their defaults.
	if cfg.Server.WSPath != "/ws" || cfg.Server.MetricsPath != "/metrics" {
		t.Errorf("WSPath = %q, MetricsPath = %q", cfg.Server.WSPath, cfg.Server.MetricsPath)
	}
	if !cfg.Server.WatchRoutes || !cfg.Telemetry.Tracing || !cfg.Telemetry.Metrics {
		t.Errorf("toggles not loaded: %+v %+v", cfg.Server, cfg.Telemetry)
	}

	if got, want := cfg.RoutesPath(), filepath.Join(tmpDir, "app/routes.yaml"); got != want {
		t.Errorf("RoutesPath() = %q, want %q", got, want)
	}
	if got, want := cfg.StorePath(), filepath.Join(tmpDir, "data/history"); got != want {
		t.Errorf("StorePath() = %q, want %q", got, want)
	}
	if cfg.ShutdownTimeout() != 30*time.Second {
		t.Errorf("ShutdownTimeout() = %v", cfg.ShutdownTimeout())
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "{\n  \"routes\": \"r.yaml\",\n  \"server\": {,}\n}\n")

	_, err := LoadFile(path)
	var we *errors.WaypointError
	if !stderrors.As(err, &we) {
		t.Fatalf("error = %v, want WaypointError", err)
	}
	if we.Code != "W001" {
		t.Errorf("Code = %q, want W001", we.Code)
	}
	if we.Location == nil || we.Location.Line != 3 {
		t.Errorf("Location = %v, want line 3", we.Location)
	}
}

func TestLoadFile_UnknownField(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"routs": "typo.yaml"}`)

	_, err := LoadFile(path)
	if err == nil || !strings.Contains(err.Error(), "routs") {
		t.Errorf("error = %v, want unknown field routs", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative redirects", func(c *Config) { c.Navigation.MaxRedirects = -1 }, "navigation.maxRedirects"},
		{"relative initial path", func(c *Config) { c.Navigation.InitialPath = "home" }, "navigation.initialPath"},
		{"protocol relative initial path", func(c *Config) { c.Navigation.InitialPath = "//evil" }, "navigation.initialPath"},
		{"ws path without slash", func(c *Config) { c.Server.WSPath = "ws" }, "server.wsPath"},
		{"prefix with query", func(c *Config) { c.Server.Prefix = "/app?x=1" }, "server.prefix"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rateLimit"},
		{"bad timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }, "server.shutdownTimeout"},
		{"negative max entries", func(c *Config) { c.History.MaxEntries = -5 }, "history.maxEntries"},
		{"empty routes", func(c *Config) { c.Routes = "" }, "routes"},
		{"unknown exporter", func(c *Config) { c.Telemetry.TraceExporter = "zipkin" }, "telemetry.traceExporter"},
		{"endpoint without port", func(c *Config) { c.Telemetry.OTLPEndpoint = "collector" }, "telemetry.otlpEndpoint"},
		{"s3 endpoint not a url", func(c *Config) { c.S3.Endpoint = "minio" }, "s3.endpoint"},
		{"bad poll interval", func(c *Config) { c.S3.PollInterval = "often" }, "s3.pollInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)

			err := cfg.Validate()
			var we *errors.WaypointError
			if !stderrors.As(err, &we) {
				t.Fatalf("Validate() = %v, want WaypointError", err)
			}
			if we.Code != "W002" {
				t.Errorf("Code = %q, want W002", we.Code)
			}
			if !strings.Contains(we.Detail, tt.field+":") {
				t.Errorf("Detail = %q, want mention of %s", we.Detail, tt.field)
			}
		})
	}

	cfg := New()
	cfg.Server.MetricsPath = ""
	cfg.Server.Prefix = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty optional paths should validate: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	cfg := New()
	cfg.Navigation.Fallback = "404"
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != path || cfg.Dir() != tmpDir {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.Navigation.Fallback != "404" {
		t.Errorf("Fallback = %q, want 404", loaded.Navigation.Fallback)
	}

	loaded.Server.Address = ":1234"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Server.Address != ":1234" {
		t.Errorf("Address = %q, want :1234", again.Server.Address)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Routes != DefaultRoutes || cfg.Navigation.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Navigation.InitialPath != "/" || cfg.Server.WSPath != "/ws" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Telemetry.Namespace != DefaultNamespace || cfg.Telemetry.TracerName != DefaultNamespace {
		t.Errorf("telemetry defaults not applied: %+v", cfg.Telemetry)
	}
	if cfg.StorePath() != "" {
		t.Errorf("StorePath() = %q, want empty", cfg.StorePath())
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	if Exists(tmpDir) {
		t.Error("Exists should be false without a config")
	}
	writeConfig(t, tmpDir, `{}`)
	if !Exists(tmpDir) {
		t.Error("Exists should be true with a config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{}`)

	nested := filepath.Join(tmpDir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	want, _ := filepath.Abs(tmpDir)
	if root != want {
		t.Errorf("FindProjectRoot() = %q, want %q", root, want)
	}
}

func TestPosition(t *testing.T) {
	data := []byte("ab\ncd\nef")
	tests := []struct {
		offset    int64
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := position(data, tt.offset)
		if line != tt.line || col != tt.col {
			t.Errorf("position(%d) = %d:%d, want %d:%d", tt.offset, line, col, tt.line, tt.col)
		}
	}
}

func TestRoutesURL(t *testing.T) {
	cfg := New()
	cfg.Routes = "s3://nav/routes.yaml"
	if got := cfg.RoutesPath(); got != "s3://nav/routes.yaml" {
		t.Errorf("RoutesPath() = %q, want the URL unchanged", got)
	}
	if got := cfg.S3PollInterval(); got != 30*time.Second {
		t.Errorf("S3PollInterval() = %v, want 30s", got)
	}
	cfg.S3.PollInterval = "5s"
	if got := cfg.S3PollInterval(); got != 5*time.Second {
		t.Errorf("S3PollInterval() = %v, want 5s", got)
	}
}
