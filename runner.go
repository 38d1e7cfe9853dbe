package pvm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pvm/pkg/instance"
)

// ContentRenderer transforms markdown before it is written, e.g. to ANSI.
type ContentRenderer func(string) (string, error)

// StatusFormatter renders an instance status as markdown.
type StatusFormatter func(*instance.Status) string

// Runner drives one instance from line-based input. Each line is a command:
//
//	signal [activity] [name] [json]   signal a waiting execution
//	set key=value ...                 set variables (values parsed as JSON when possible)
//	status                            print the status again
//	cancel [reason]                   cancel the instance
//	quit | exit                       leave the loop
//
// An empty line sends an unnamed signal. The loop ends with the instance.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	Format   StatusFormatter
}

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{Format: defaultFormat}
}

// Run starts an instance of definitionID and processes commands until the
// instance ends, input is exhausted or the user quits.
func (r *Runner) Run(ctx context.Context, engine *Engine, definitionID string, vars map[string]any) (*instance.Status, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.Format == nil {
		r.Format = defaultFormat
	}
	lines := bufio.NewReader(r.Input)

	status, err := engine.Start(ctx, definitionID, vars)
	if err != nil {
		return nil, err
	}
	if !r.Headless {
		fmt.Fprintf(r.Output, "--- pvm: %s ---\n", definitionID)
	}

	for {
		r.print(status)
		if status.Ended {
			return status, nil
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				return status, nil
			}
			return status, fmt.Errorf("input error: %w", err)
		}

		next, quit, err := r.apply(ctx, engine, status.ID, strings.TrimSpace(text))
		if quit {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return status, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return status, ctx.Err()
			}
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}
		status = next
	}
}

func (r *Runner) apply(ctx context.Context, engine *Engine, id, line string) (*instance.Status, bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	m := engine.Manager()

	switch cmd {
	case "quit", "exit":
		return nil, true, nil
	case "status":
		st, err := m.Status(ctx, id)
		return st, false, err
	case "cancel":
		if rest == "" {
			rest = "cancelled"
		}
		st, err := m.Cancel(ctx, id, rest)
		return st, false, err
	case "set":
		vars, err := parseAssignments(rest)
		if err != nil {
			return nil, false, err
		}
		st, err := m.SetVariables(ctx, id, vars)
		return st, false, err
	case "", "signal":
		activity, name, data, err := parseSignal(rest)
		if err != nil {
			return nil, false, err
		}
		st, err := m.Signal(ctx, id, activity, name, data)
		return st, false, err
	}
	return nil, false, fmt.Errorf("unknown command %q", cmd)
}

func (r *Runner) print(status *instance.Status) {
	output := r.Format(status)
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

// parseSignal reads "[activity] [name] [json]". A trailing JSON object or
// value becomes the signal data.
func parseSignal(s string) (activity, name string, data any, err error) {
	if i := strings.IndexAny(s, "{["); i >= 0 {
		if err := json.Unmarshal([]byte(s[i:]), &data); err != nil {
			return "", "", nil, fmt.Errorf("invalid signal data: %w", err)
		}
		s = s[:i]
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
	case 1:
		activity = fields[0]
	case 2:
		activity, name = fields[0], fields[1]
	default:
		return "", "", nil, fmt.Errorf("usage: signal [activity] [name] [json]")
	}
	return activity, name, data, nil
}

func parseAssignments(s string) (map[string]any, error) {
	vars := make(map[string]any)
	for _, f := range strings.Fields(s) {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", f)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		vars[key] = v
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("usage: set key=value ...")
	}
	return vars, nil
}

func defaultFormat(s *instance.Status) string {
	if s.Ended {
		if s.DeleteReason != "" {
			return fmt.Sprintf("instance %s cancelled: %s", s.ID, s.DeleteReason)
		}
		return fmt.Sprintf("instance %s ended", s.ID)
	}
	return fmt.Sprintf("instance %s waits in %s", s.ID, strings.Join(s.ActiveActivities, ", "))
}
