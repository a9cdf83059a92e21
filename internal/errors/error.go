package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Category groups codes by the subsystem that raised them.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryRoutes     Category = "routes"
	CategoryNavigation Category = "navigation"
	CategoryServer     Category = "server"
	CategoryCLI        Category = "cli"
)

// Location is a file position. Column 0 means unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l *Location) String() string {
	switch {
	case l == nil:
		return ""
	case l.Column > 0:
		return l.File + ":" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Column)
	default:
		return l.File + ":" + strconv.Itoa(l.Line)
	}
}

// WaypointError is the error type surfaced by the CLI. It carries a
// registry code, an optional source position and hints for the user.
type WaypointError struct {
	Code     string
	Category Category
	Message  string
	Detail   string

	Location *Location
	// Context holds source lines around Location; ContextStart is the line
	// number of Context[0], or 0 when the lines are centered on Location.
	Context      []string
	ContextStart int

	Suggestion string
	Example    string
	Wrapped    error
}

func (e *WaypointError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Wrapped == nil {
		return msg
	}
	return msg + ": " + e.Wrapped.Error()
}

func (e *WaypointError) Unwrap() error { return e.Wrapped }

// contextRadius is the number of lines read on each side of a location.
const contextRadius = 2

// WithLocation points the error at file:line:column and loads the
// surrounding lines when the file is readable.
func (e *WaypointError) WithLocation(file string, line, column int) *WaypointError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context, e.ContextStart = sourceLines(file, line-contextRadius, line+contextRadius)
	return e
}

// positionRe matches the "line N" or "line N:C" fragments that the YAML
// and JSON decoders embed in their messages.
var positionRe = regexp.MustCompile(`line (\d+)(?::(\d+))?`)

// WithLocationFromError copies the first position found in err's message
// onto the error. Errors without one leave Location unset.
func (e *WaypointError) WithLocationFromError(file string, err error) *WaypointError {
	if err == nil {
		return e
	}
	m := positionRe.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[1])
	if line <= 0 {
		return e
	}
	col, _ := strconv.Atoi(m[2])
	return e.WithLocation(file, line, col)
}

func (e *WaypointError) WithSuggestion(s string) *WaypointError {
	e.Suggestion = s
	return e
}

func (e *WaypointError) WithExample(ex string) *WaypointError {
	e.Example = ex
	return e
}

func (e *WaypointError) WithDetail(d string) *WaypointError {
	e.Detail = d
	return e
}

// WithContext replaces the source excerpt, centered on Location.
func (e *WaypointError) WithContext(lines []string) *WaypointError {
	e.Context, e.ContextStart = lines, 0
	return e
}

// Wrap sets the underlying cause.
func (e *WaypointError) Wrap(err error) *WaypointError {
	e.Wrapped = err
	return e
}

// sourceLines returns lines from..to (1-based, inclusive) of path and the
// number of the first line returned. Unreadable files yield nil.
func sourceLines(path string, from, to int) ([]string, int) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	from = max(from, 1)
	var out []string
	sc := bufio.NewScanner(f)
	for n := 1; n <= to && sc.Scan(); n++ {
		if n >= from {
			out = append(out, sc.Text())
		}
	}
	if len(out) == 0 {
		return nil, 0
	}
	return out, from
}

// New returns a fresh error for a registered code. Unregistered codes keep
// the code with a generic message.
func New(code string) *WaypointError {
	e := &WaypointError{Code: code, Message: "Unknown error"}
	if def, ok := registry[code]; ok {
		e.Category, e.Message, e.Detail = def.Category, def.Message, def.Detail
	}
	return e
}

// Newf returns an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *WaypointError {
	return &WaypointError{Category: category, Message: fmt.Sprintf(format, args...)}
}

// FromError returns the WaypointError already in err's chain, or wraps err
// under code.
func FromError(err error, code string) *WaypointError {
	if err == nil {
		return nil
	}
	var we *WaypointError
	if stderrors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}

// FromNavigation maps an error returned by a navigation service to its
// registered code. Unknown errors get W049.
func FromNavigation(err error) *WaypointError {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, router.ErrUnresolvedName):
		return New("W040").Wrap(err).
			WithSuggestion("Check the route names declared with `name:` in the routes file")
	case stderrors.Is(err, router.ErrMissingParameter):
		return New("W041").Wrap(err).
			WithSuggestion("Pass every variable segment, e.g. @post?id=42")
	case stderrors.Is(err, navigation.ErrRedirectLoop):
		return New("W042").Wrap(err)
	case stderrors.Is(err, navigation.ErrExternalUnsupported):
		return New("W043").Wrap(err)
	default:
		return New("W049").Wrap(err)
	}
}
