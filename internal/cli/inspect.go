package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/pvm"
	"github.com/aretw0/pvm/internal/compiler"
	"github.com/aretw0/pvm/internal/logging"
	"github.com/aretw0/pvm/internal/presentation/graph"
	"github.com/aretw0/pvm/internal/presentation/tui"
	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/registry"
)

// RunValidate compiles and checks every process document of dir, printing
// one line per document and per finding. It fails when any document has
// errors; warnings alone pass.
func RunValidate(w io.Writer, dir string) error {
	files, err := compiler.Files(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no process documents in %s", dir)
	}

	c := compiler.New(registry.Default(logging.NewNop()))
	failed := 0
	for _, f := range files {
		def, err := c.LoadFile(f)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %v\n", tui.Failure("✗"), err)
			continue
		}
		issues := compiler.Validate(def)
		if issues.Err() != nil {
			failed++
			fmt.Fprintf(w, "%s %s (%s)\n", tui.Failure("✗"), def.ID(), f)
		} else {
			fmt.Fprintf(w, "%s %s (%s)\n", tui.Success("✓"), def.ID(), f)
		}
		for _, issue := range issues {
			line := "  " + issue.String()
			if issue.Severity == compiler.SeverityError {
				line = tui.Failure(line)
			} else {
				line = tui.Warning(line)
			}
			fmt.Fprintln(w, line)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents are invalid", failed, len(files))
	}
	return nil
}

// RunGraph prints the Mermaid chart of a definition. With an instance id,
// the activities the instance waits in are highlighted.
func RunGraph(ctx context.Context, w io.Writer, engine *pvm.Engine, definitionID, instanceID string) error {
	def, err := pickDefinition(ctx, engine, definitionID)
	if err != nil {
		return err
	}
	var overlay *graph.Overlay
	if instanceID != "" {
		status, err := engine.Status(ctx, instanceID)
		if err != nil {
			return err
		}
		overlay = &graph.Overlay{Active: status.ActiveActivities}
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(def, overlay))
	return err
}

// RunDescribe renders a definition as a table through glamour.
func RunDescribe(ctx context.Context, w io.Writer, engine *pvm.Engine, definitionID, style string) error {
	def, err := pickDefinition(ctx, engine, definitionID)
	if err != nil {
		return err
	}
	render, err := tui.NewRenderer(style)
	if err != nil {
		return err
	}
	out, err := render(tui.DescribeDefinition(def))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// pickDefinition returns the named definition, or the only one loaded when
// id is empty.
func pickDefinition(ctx context.Context, engine *pvm.Engine, id string) (*domain.ProcessDefinition, error) {
	if id != "" {
		return engine.Definition(ctx, id)
	}
	ids, err := engine.Definitions().ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) != 1 {
		return nil, fmt.Errorf("%d definitions loaded, choose one of %v", len(ids), ids)
	}
	return engine.Definition(ctx, ids[0])
}
