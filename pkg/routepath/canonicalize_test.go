package routepath

import (
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantPath     string
		wantQuery    string
		wantHasQuery bool
		wantChanged  bool
	}{
		{
			name:     "root",
			input:    "/",
			wantPath: "/",
		},
		{
			name:        "empty string",
			input:       "",
			wantPath:    "/",
			wantChanged: true,
		},
		{
			name:        "no leading slash",
			input:       "about",
			wantPath:    "/about",
			wantChanged: true,
		},
		{
			name:        "collapse slashes",
			input:       "/blog//post",
			wantPath:    "/blog/post",
			wantChanged: true,
		},
		{
			name:        "single dot",
			input:       "/blog/./post",
			wantPath:    "/blog/post",
			wantChanged: true,
		},
		{
			name:        "double dot",
			input:       "/blog/posts/../other",
			wantPath:    "/blog/other",
			wantChanged: true,
		},
		{
			name:        "double dot to root",
			input:       "/blog/../",
			wantPath:    "/",
			wantChanged: true,
		},
		{
			name:         "query preserved",
			input:        "/projects/123?tab=details",
			wantPath:     "/projects/123",
			wantQuery:    "tab=details",
			wantHasQuery: true,
		},
		{
			name:         "empty query",
			input:        "/projects?",
			wantPath:     "/projects",
			wantHasQuery: true,
		},
		{
			name:         "trailing slash with query",
			input:        "/projects/123/?tab=details",
			wantPath:     "/projects/123",
			wantQuery:    "tab=details",
			wantHasQuery: true,
			wantChanged:  true,
		},
		{
			name:         "query escapes not validated",
			input:        "/projects?bad=%GG",
			wantPath:     "/projects",
			wantQuery:    "bad=%GG",
			wantHasQuery: true,
		},
		{
			name:     "valid percent escapes",
			input:    "/path/%2Fok",
			wantPath: "/path/%2Fok",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.input)
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error = %v", tc.input, err)
			}
			if got.Path != tc.wantPath {
				t.Errorf("Canonicalize(%q).Path = %q, want %q", tc.input, got.Path, tc.wantPath)
			}
			if got.Query != tc.wantQuery {
				t.Errorf("Canonicalize(%q).Query = %q, want %q", tc.input, got.Query, tc.wantQuery)
			}
			if got.HasQuery != tc.wantHasQuery {
				t.Errorf("Canonicalize(%q).HasQuery = %v, want %v", tc.input, got.HasQuery, tc.wantHasQuery)
			}
			if got.Changed != tc.wantChanged {
				t.Errorf("Canonicalize(%q).Changed = %v, want %v", tc.input, got.Changed, tc.wantChanged)
			}
		})
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"backslash", "/path\\with\\backslash", ErrBackslashInPath},
		{"null byte literal", "/path/\x00/null", ErrNullByteInPath},
		{"null byte encoded", "/path/%00/null", ErrNullByteInPath},
		{"incomplete escape", "/path/%2", ErrInvalidPercentEscape},
		{"bad escape", "/path/%GG", ErrInvalidPercentEscape},
		{"percent literal", "/path/100%", ErrInvalidPercentEscape},
		{"escape root", "/../secret", ErrPathEscapesRoot},
		{"deep escape root", "/a/../../secret", ErrPathEscapesRoot},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Canonicalize(tc.input)
			if err != tc.wantErr {
				t.Errorf("Canonicalize(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
		})
	}
}

func TestValidateNavPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple path", input: "/about", want: "/about"},
		{name: "path with query", input: "/projects/123?tab=details", want: "/projects/123?tab=details"},
		{name: "root", input: "/", want: "/"},
		{name: "needs canonicalization", input: "/projects/123/", want: "/projects/123"},
		{name: "missing leading slash", input: "about", wantErr: ErrInvalidPath},
		{name: "http URL", input: "http://evil.com/path", wantErr: ErrInvalidPath},
		{name: "protocol-relative URL", input: "//evil.com/path", wantErr: ErrInvalidPath},
		{name: "triple slash URL", input: "///evil.com/path", wantErr: ErrInvalidPath},
		{name: "backslash", input: "/path\\with\\backslash", wantErr: ErrBackslashInPath},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateNavPath(tc.input)
			if err != tc.wantErr {
				t.Fatalf("ValidateNavPath(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ValidateNavPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		name       string
		segment    string
		allowSlash bool
		want       string
		wantErr    error
	}{
		{name: "plain", segment: "hello", want: "hello"},
		{name: "encoded space", segment: "hello%20world", want: "hello world"},
		{name: "encoded slash rejected", segment: "hello%2Fworld", wantErr: ErrEncodedSlashInSegment},
		{name: "encoded slash allowed", segment: "hello%2Fworld", allowSlash: true, want: "hello/world"},
		{name: "invalid escape", segment: "hello%ZZ", wantErr: ErrInvalidPercentEscape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeSegment(tc.segment, tc.allowSlash)
			if err != tc.wantErr {
				t.Fatalf("DecodeSegment(%q, %v) error = %v, want %v", tc.segment, tc.allowSlash, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("DecodeSegment(%q, %v) = %q, want %q", tc.segment, tc.allowSlash, got, tc.want)
			}
		})
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr error
	}{
		{path: "/a/b/c", want: []string{"a", "b", "c"}},
		{path: "/", want: nil},
		{path: "", want: nil},
		{path: "//a///b/", want: []string{"a", "b"}},
		{path: "/hello%20world/test", want: []string{"hello world", "test"}},
		{path: "/a%2Fb/c", want: []string{"a/b", "c"}},
		{path: "/bad/%GG", wantErr: ErrInvalidPercentEscape},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := Segments(tc.path)
			if err != tc.wantErr {
				t.Fatalf("Segments(%q) error = %v, want %v", tc.path, err, tc.wantErr)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Segments(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, "/"},
		{[]string{"blog", "42"}, "/blog/42"},
		{[]string{"a b", "c/d"}, "/a%20b/c%2Fd"},
	}

	for _, tc := range tests {
		if got := Join(tc.segments...); got != tc.want {
			t.Errorf("Join(%q) = %q, want %q", tc.segments, got, tc.want)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		current string
		target  string
		want    string
	}{
		{"/posts/42", "edit", "/posts/edit"},
		{"/posts/42?x=1", "43", "/posts/43"},
		{"/posts/42", "43?tab=comments", "/posts/43?tab=comments"},
		{"/posts/42", "../about", "/about"},
		{"/", "about", "/about"},
		{"/posts/42", "/absolute/", "/absolute"},
	}

	for _, tc := range tests {
		got, err := ResolveRelative(tc.current, tc.target)
		if err != nil {
			t.Errorf("ResolveRelative(%q, %q) unexpected error = %v", tc.current, tc.target, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveRelative(%q, %q) = %q, want %q", tc.current, tc.target, got, tc.want)
		}
	}

	if _, err := ResolveRelative("/a", "../../x"); err != ErrPathEscapesRoot {
		t.Errorf("ResolveRelative escaping root error = %v, want %v", err, ErrPathEscapesRoot)
	}
}

func TestSplitPathAndQuery(t *testing.T) {
	path, query := SplitPathAndQuery("/path?a=1&b=2")
	if path != "/path" || query == nil || *query != "a=1&b=2" {
		t.Errorf("SplitPathAndQuery with query = %q, %v", path, query)
	}

	path, query = SplitPathAndQuery("/path?")
	if path != "/path" || query == nil || *query != "" {
		t.Errorf("SplitPathAndQuery with empty query = %q, %v", path, query)
	}

	path, query = SplitPathAndQuery("/path")
	if path != "/path" || query != nil {
		t.Errorf("SplitPathAndQuery without query = %q, %v", path, query)
	}
}
