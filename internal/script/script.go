// Package script runs navigation scripts against a navigation service.
//
// A script is a list of lines:
//
//	# comments and blank lines are ignored
//	push /blog
//	push @post?id=42
//	replace ../about
//	back
//	forward
//	drain
//
// Navigation lines are queued; "drain" runs one cycle and prints the
// published state. Anything still queued at the end is drained once more.
package script

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Action is a script instruction.
type Action string

const (
	ActionPush    Action = "push"
	ActionReplace Action = "replace"
	ActionBack    Action = "back"
	ActionForward Action = "forward"
	ActionDrain   Action = "drain"
)

// Step is one parsed script line.
type Step struct {
	Line   int
	Action Action
	Target string
}

// Parse reads a script. Errors carry the W081 code and the line number.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		action := Action(strings.ToLower(fields[0]))
		switch action {
		case ActionPush, ActionReplace:
			if len(fields) != 2 {
				return nil, invalid(line, "%s takes exactly one target", action)
			}
			steps = append(steps, Step{Line: line, Action: action, Target: fields[1]})
		case ActionBack, ActionForward, ActionDrain:
			if len(fields) != 1 {
				return nil, invalid(line, "%s takes no arguments", action)
			}
			steps = append(steps, Step{Line: line, Action: action})
		default:
			return nil, invalid(line, "unknown instruction %q", fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New("W081").Wrap(err)
	}
	return steps, nil
}

// ParseFile reads the script at path. Errors point into the file.
func ParseFile(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("W081").Wrap(err)
	}
	defer f.Close()

	steps, err := Parse(f)
	var we *errors.WaypointError
	if stderrors.As(err, &we) && we.Location != nil {
		we.WithLocation(path, we.Location.Line, 0)
	}
	return steps, err
}

func invalid(line int, format string, args ...any) error {
	return errors.New("W081").
		WithDetail(fmt.Sprintf(format, args...)).
		WithLocation("", line, 0)
}

// Format selects how states are written.
type Format int

const (
	// FormatText writes one tab separated line per state.
	FormatText Format = iota
	// FormatJSON writes one JSON object per state.
	FormatJSON
)

// Runner executes steps against a service.
type Runner struct {
	Service *navigation.Service
	Out     io.Writer
	Format  Format
}

// Report summarizes a run.
type Report struct {
	Cycles int
	Errors []error
}

// Run executes steps in order. Navigation failures are written to Out and
// collected in the report; they do not stop the run.
func (r *Runner) Run(steps []Step) (Report, error) {
	var rep Report
	nav := r.Service.Navigator()

	for _, step := range steps {
		var err error
		switch step.Action {
		case ActionPush:
			err = nav.NavigateTo(step.Target)
		case ActionReplace:
			err = nav.NavigateTo(step.Target, navigation.WithReplace())
		case ActionBack:
			nav.Back()
		case ActionForward:
			nav.Forward()
		case ActionDrain:
			if werr := r.drain(&rep); werr != nil {
				return rep, werr
			}
			continue
		}
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			if werr := r.writeError(step.Line, err); werr != nil {
				return rep, werr
			}
		}
	}

	if r.Service.Pending() > 0 {
		if err := r.drain(&rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (r *Runner) drain(rep *Report) error {
	rep.Cycles++
	if err := r.Service.Drain(); err != nil {
		rep.Errors = append(rep.Errors, err)
		if werr := r.writeError(0, err); werr != nil {
			return werr
		}
	}
	return r.writeState(rep.Cycles, r.Service.State())
}

type stateLine struct {
	Cycle int                 `json:"cycle"`
	Names []string            `json:"names"`
	State *router.RouterState `json:"state"`
}

func (r *Runner) writeState(cycle int, st *router.RouterState) error {
	if r.Format == FormatJSON {
		return json.NewEncoder(r.Out).Encode(stateLine{Cycle: cycle, Names: st.Names.Sorted(), State: st})
	}

	_, err := fmt.Fprintf(r.Out, "%d\t%s\n", cycle, FormatState(st))
	return err
}

// FormatState renders st as tab separated fields: the URL, "matched" or
// "unmatched=REMAINDER", then main content, active names and the back and
// forward capabilities when present.
func FormatState(st *router.RouterState) string {
	var b strings.Builder
	b.WriteString(st.URL())
	if st.Matched {
		b.WriteString("\tmatched")
	} else {
		fmt.Fprintf(&b, "\tunmatched=%s", strings.Join(st.Remainder, "/"))
	}
	if len(st.Components.Main) > 0 {
		ids := make([]string, len(st.Components.Main))
		for i, id := range st.Components.Main {
			ids[i] = string(id)
		}
		fmt.Fprintf(&b, "\tmain=%s", strings.Join(ids, ","))
	}
	if names := st.Names.Sorted(); len(names) > 0 {
		fmt.Fprintf(&b, "\tnames=%s", strings.Join(names, ","))
	}
	if st.CanGoBack {
		b.WriteString("\tback")
	}
	if st.CanGoForward {
		b.WriteString("\tforward")
	}
	return b.String()
}

func (r *Runner) writeError(line int, err error) error {
	we := errors.FromNavigation(err)
	if r.Format == FormatJSON {
		return json.NewEncoder(r.Out).Encode(struct {
			Line  int    `json:"line,omitempty"`
			Code  string `json:"code"`
			Error string `json:"error"`
		}{line, we.Code, err.Error()})
	}
	prefix := "error"
	if line > 0 {
		prefix = fmt.Sprintf("error line %d", line)
	}
	_, werr := fmt.Fprintf(r.Out, "%s\t%s\t%v\n", prefix, we.Code, err)
	return werr
}
