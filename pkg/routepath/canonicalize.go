package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Canonical is a normalized path with its query string split off.
type Canonical struct {
	// Path is the normalized path. It always starts with "/".
	Path string

	// Query is the query string without the leading "?".
	Query string

	// HasQuery is true when the input contained "?", even with an empty query.
	HasQuery bool

	// Changed reports whether normalization modified the path.
	Changed bool
}

// String joins the path and query back together.
func (c Canonical) String() string {
	if !c.HasQuery {
		return c.Path
	}
	return c.Path + "?" + c.Query
}

// Path errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in segment")
)

// Canonicalize normalizes a path.
//
//   - a leading "/" is added when missing
//   - repeated slashes collapse (/blog//post → /blog/post)
//   - "." segments are dropped and ".." pops the previous segment
//   - a trailing slash is removed, except for "/"
//
// Backslashes, NUL bytes (literal or %00), malformed percent escapes and ".."
// above the root are rejected. The query string is kept as is.
func Canonicalize(input string) (Canonical, error) {
	if input == "" {
		return Canonical{Path: "/", Changed: true}, nil
	}

	path, query, hasQuery := strings.Cut(input, "?")

	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Canonical{}, err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	normalized := "/" + strings.Join(out, "/")
	return Canonical{
		Path:     normalized,
		Query:    query,
		HasQuery: hasQuery,
		Changed:  normalized != path,
	}, nil
}

// validatePercentEscapes checks that every "%" starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment percent-decodes one path segment. Unless allowSlash is set,
// a segment that decodes to something containing "/" is rejected.
func DecodeSegment(segment string, allowSlash bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !allowSlash && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// Segments splits a path into non-empty, percent-decoded segments.
// "/" and "" both yield nil.
func Segments(path string) ([]string, error) {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		decoded, err := DecodeSegment(seg, true)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// Join escapes each segment and joins them into an absolute path.
func Join(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

// ResolveRelative resolves a relative target against the current path.
// The target replaces the last segment of current, so "edit" against
// "/posts/42" gives "/posts/edit" and "../list" gives "/list". An absolute
// target is only canonicalized.
func ResolveRelative(current, target string) (string, error) {
	if strings.HasPrefix(target, "/") {
		c, err := Canonicalize(target)
		if err != nil {
			return "", err
		}
		return c.String(), nil
	}

	base, _, _ := strings.Cut(current, "?")
	base = strings.TrimSuffix(base, "/")
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[:i]
	}

	c, err := Canonicalize(base + "/" + target)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ValidateNavPath canonicalizes a path received from a host environment.
// It must start with a single "/"; full URLs and protocol-relative paths
// such as "//evil.example" are rejected.
func ValidateNavPath(path string) (string, error) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "", ErrInvalidPath
	}

	c, err := Canonicalize(path)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// SplitPathAndQuery splits input at the first "?". The query is nil when
// input has no "?".
func SplitPathAndQuery(input string) (path string, query *string) {
	path, q, ok := strings.Cut(input, "?")
	if !ok {
		return path, nil
	}
	return path, &q
}
