package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config error", "W001", "Invalid config file", CategoryConfig},
		{"routes error", "W020", "Invalid routes file", CategoryRoutes},
		{"navigation error", "W042", "Redirect loop", CategoryNavigation},
		{"cli error", "W081", "Invalid simulation script", CategoryCLI},
		{"unknown error code", "W999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown command %q", "jump")
	if err.Message != `unknown command "jump"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestWaypointError_Error(t *testing.T) {
	if got, want := New("W020").Error(), "W020: Invalid routes file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New("W020").Wrap(stderrors.New("yaml: line 3: bad indent"))
	if got, want := wrapped.Error(), "W020: Invalid routes file: yaml: line 3: bad indent"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &WaypointError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestWaypointError_WithLocation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "routes.yaml")
	content := "index: home\nroutes:\n  - path: blog\n    content: blog\n  - content: about\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("W020").WithLocation(file, 5, 5)
	if err.Location == nil || err.Location.Line != 5 || err.Location.Column != 5 {
		t.Fatalf("Location = %+v", err.Location)
	}
	// Lines 3 through 5; line 6 and 7 do not exist.
	if len(err.Context) != 3 {
		t.Fatalf("len(Context) = %d, want 3: %q", len(err.Context), err.Context)
	}
	if err.Context[2] != "  - content: about" {
		t.Errorf("Context[2] = %q", err.Context[2])
	}

	missing := New("W020").WithLocation(filepath.Join(dir, "nope.yaml"), 1, 1)
	if missing.Context != nil {
		t.Errorf("Context for missing file = %q, want nil", missing.Context)
	}
}

func TestWaypointError_WithLocationFromError(t *testing.T) {
	tests := []struct {
		err      error
		wantLine int
		wantCol  int
	}{
		{stderrors.New("yaml: line 7: did not find expected key"), 7, 0},
		{stderrors.New("yaml: unmarshal errors:\n  line 3: field foo not found"), 3, 0},
		{stderrors.New("decode: line 2:14: unexpected token"), 2, 14},
		{stderrors.New("no position here"), 0, 0},
		{nil, 0, 0},
	}

	for _, tt := range tests {
		e := New("W020").WithLocationFromError("routes.yaml", tt.err)
		if tt.wantLine == 0 {
			if e.Location != nil {
				t.Errorf("%v: Location = %v, want nil", tt.err, e.Location)
			}
			continue
		}
		if e.Location == nil || e.Location.Line != tt.wantLine || e.Location.Column != tt.wantCol {
			t.Errorf("%v: Location = %v, want line %d col %d", tt.err, e.Location, tt.wantLine, tt.wantCol)
		}
	}
}

func TestWaypointError_Builders(t *testing.T) {
	err := New("W002").
		WithSuggestion("Set navigation.maxRedirects to a positive number").
		WithDetail("custom detail").
		WithExample(`{"navigation": {"maxRedirects": 32}}`).
		WithContext([]string{"a", "b"})

	if err.Suggestion != "Set navigation.maxRedirects to a positive number" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !strings.Contains(err.Example, "maxRedirects") {
		t.Errorf("Example = %q", err.Example)
	}
	if len(err.Context) != 2 {
		t.Errorf("Context = %q", err.Context)
	}
}

func TestWaypointError_Wrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := New("W060").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped error")
	}
	if stderrors.Unwrap(err) != cause {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	we := New("W020")
	wrapped := fmt.Errorf("load: %w", we)
	if got := FromError(wrapped, "W001"); got != we {
		t.Errorf("FromError should return the WaypointError in the chain, got %v", got)
	}

	plain := stderrors.New("disk full")
	got := FromError(plain, "W060")
	if got.Code != "W060" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFromNavigation(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("navigate to @x: %w: %q", router.ErrUnresolvedName, "x"), "W040"},
		{fmt.Errorf("%w: %q", router.ErrMissingParameter, "id"), "W041"},
		{fmt.Errorf("%w: 32 redirects ending at /a", navigation.ErrRedirectLoop), "W042"},
		{stderrors.Join(stderrors.New("x"), navigation.ErrExternalUnsupported), "W043"},
		{stderrors.New("other"), "W049"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := FromNavigation(tt.err)
			if got.Code != tt.code {
				t.Errorf("Code = %q, want %q", got.Code, tt.code)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("mapped error should wrap the original")
			}
		})
	}

	if FromNavigation(nil) != nil {
		t.Error("FromNavigation(nil) should be nil")
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "routes.yaml", Line: 3}, "routes.yaml:3"},
		{&Location{File: "routes.yaml", Line: 3, Column: 7}, "routes.yaml:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W020").
		WithContext([]string{"routes:", "  - path: blog", "  - content: about"}).
		WithSuggestion("Each route needs a path").
		Wrap(stderrors.New("route without path"))
	err.Location = &Location{File: "routes.yaml", Line: 3, Column: 5}

	out := err.Format()
	for _, want := range []string{
		"ERROR W020: Invalid routes file",
		"routes.yaml:3:5",
		"→    3 │   - path: blog",
		"^",
		"Cause: route without path",
		"Hint: Each route needs a path",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("W021")
	err.Location = &Location{File: "routes.yaml", Line: 1}
	if got, want := err.FormatCompact(), "routes.yaml:1: W021: Route tree validation failed"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W040").Wrap(stderrors.New("unresolved")).WithSuggestion("check names")
	got := err.FormatJSON()
	for _, want := range []string{
		`"code":"W040"`,
		`"category":"navigation"`,
		`"cause":"unresolved"`,
		`"suggestion":"check names"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatJSON() = %s, missing %s", got, want)
		}
	}
	if strings.Contains(got, "location") {
		t.Errorf("FormatJSON() should omit an empty location: %s", got)
	}
}

func TestRegistry(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("no registered codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		def, ok := Lookup(code)
		if !ok || def.Message == "" || def.Category == "" {
			t.Errorf("definition %s incomplete: %+v", code, def)
		}
	}

	Register("W998", Definition{Category: CategoryCLI, Message: "Test"})
	defer delete(registry, "W998")
	if New("W998").Message != "Test" {
		t.Error("Register should add the definition")
	}
}

func TestWrapText(t *testing.T) {
	if wrapText("", 10) != nil {
		t.Error("empty text should give nil")
	}
	lines := wrapText("the quick brown fox jumps over the lazy dog", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrapText lost words: %q", lines)
	}
}

func TestFormatDetailEntries(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("W002").WithDetail("server.wsPath: failed urlpath; routes: failed required").Format()
	for _, want := range []string{"  • server.wsPath: failed urlpath\n", "  • routes: failed required\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, New("W043"))
	if !strings.Contains(b.String(), "ERROR W043: External navigation unsupported") {
		t.Errorf("Fprint() = %q", b.String())
	}

	b.Reset()
	Fprint(&b, stderrors.New("plain"))
	if got := b.String(); got != "\nERROR: plain\n\n" {
		t.Errorf("Fprint() = %q", got)
	}
}
