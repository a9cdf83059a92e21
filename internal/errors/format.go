package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiWhite = "\033[37m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorsOff atomic.Bool

// DisableColors turns off ANSI colors in Format and PrintError.
func DisableColors() { colorsOff.Store(true) }

// EnableColors turns ANSI colors back on.
func EnableColors() { colorsOff.Store(false) }

func paint(text string, codes ...string) string {
	if colorsOff.Load() || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error for a terminal: a header, the source excerpt
// around Location, the detail, the cause and any hint or example.
func (e *WaypointError) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)
	e.writeSource(&b)
	e.writeDetail(&b)

	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Cause: ", ansiGray), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint("Hint: ", ansiCyan), e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", paint("Example:", ansiCyan))
		for _, line := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (e *WaypointError) writeHeader(b *strings.Builder) {
	title := e.Message
	label := "ERROR: "
	if e.Code != "" {
		label = "ERROR "
		title = e.Code + ": " + e.Message
	}
	fmt.Fprintf(b, "%s%s\n\n", paint(label, ansiRed, ansiBold), paint(title, ansiWhite, ansiBold))
}

// writeSource prints Location and the numbered context lines, marking the
// error line with an arrow and the column with a caret.
func (e *WaypointError) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
	if len(e.Context) == 0 {
		return
	}

	bar := paint(" │ ", ansiGray)
	first := e.ContextStart
	if first == 0 {
		first = e.Location.Line - len(e.Context)/2
	}
	for i, text := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, text)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", paint("→ ", ansiRed), n, bar, text)
		if col := e.Location.Column; col > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint("│ ", ansiGray), strings.Repeat(" ", col-1), paint("^", ansiRed))
		}
	}
	b.WriteString("\n")
}

// writeDetail wraps the detail text. Validation details join one entry per
// field with "; "; each entry gets its own line.
func (e *WaypointError) writeDetail(b *strings.Builder) {
	if e.Detail == "" {
		return
	}
	entries := strings.Split(e.Detail, "; ")
	for _, entry := range entries {
		prefix := "  "
		if len(entries) > 1 {
			prefix = "  • "
		}
		for i, line := range wrapText(entry, 70) {
			if i > 0 {
				prefix = strings.Repeat(" ", len([]rune(prefix)))
			}
			b.WriteString(prefix + line + "\n")
		}
	}
	b.WriteString("\n")
}

// FormatCompact returns "file:line: CODE: message".
func (e *WaypointError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *WaypointError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	if l := e.Location; l != nil {
		out.Location = &jsonLocation{File: l.File, Line: l.Line, Column: l.Column}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes. Words longer
// than width get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}

// Fprint writes err to w, formatted when it is a WaypointError.
func Fprint(w io.Writer, err error) {
	var we *WaypointError
	if stderrors.As(err, &we) {
		fmt.Fprint(w, we.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiRed, ansiBold), err.Error())
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
