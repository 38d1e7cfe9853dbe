package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pvm"
	"github.com/aretw0/pvm/internal/presentation/tui"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	DefinitionID string
	// Variables is a JSON object of initial variables.
	Variables string
	Headless  bool
	// Style is the glamour style; empty detects the terminal background.
	Style  string
	Input  io.Reader
	Output io.Writer
}

// RunProcess starts an instance and drives it from opts.Input until it ends
// or input runs out.
func RunProcess(ctx context.Context, engine *pvm.Engine, opts RunOptions) error {
	var vars map[string]any
	if opts.Variables != "" {
		if err := json.Unmarshal([]byte(opts.Variables), &vars); err != nil {
			return fmt.Errorf("error parsing --vars JSON: %w", err)
		}
	}
	def, err := pickDefinition(ctx, engine, opts.DefinitionID)
	if err != nil {
		return err
	}

	r := pvm.NewRunner()
	r.Input = opts.Input
	r.Output = opts.Output
	r.Headless = opts.Headless
	if !opts.Headless {
		render, err := tui.NewRenderer(opts.Style)
		if err != nil {
			return err
		}
		r.Renderer = render
		r.Format = tui.DescribeStatus
		tui.PrintBanner(opts.Output)
	}

	status, err := r.Run(ctx, engine, def.ID(), vars)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if !opts.Headless {
		if status.Ended {
			printSystemMessage(opts.Output, "Instance '%s' finished.", status.ID)
		} else {
			printSystemMessage(opts.Output, "Instance '%s' left waiting in %s.", status.ID, strings.Join(status.ActiveActivities, ", "))
		}
	}
	return nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
