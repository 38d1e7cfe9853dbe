package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/pvm/pkg/behavior"
	"github.com/aretw0/pvm/pkg/domain"
)

// Overlay contains runtime state to highlight on the graph.
type Overlay struct {
	// Active lists the ids of the activities executions wait in.
	Active []string
}

// GenerateMermaid produces a Mermaid flowchart for def.
// Shapes follow the behavior:
// - Initial: ((Circle))
// - End: (((Double circle)))
// - Exclusive gateway: {Rhombus}
// - Parallel gateway: {{Hexagon}}
// - Automatic: (Rounded)
// - Default: [Rectangle]
// Activities with nested activities become subgraphs.
func GenerateMermaid(def *domain.ProcessDefinition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	writeNodes(&sb, def, &def.Scope, 1)

	def.Walk(func(a *domain.Activity) {
		for _, t := range a.Outgoing() {
			if t.Destination() == nil {
				continue
			}
			arrow := "-->"
			if v, ok := t.Property(behavior.ConditionProperty); ok {
				cond := strings.ReplaceAll(fmt.Sprint(v), "\"", "'")
				arrow = fmt.Sprintf("-- \"%s\" -->", cond)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(a), arrow, nodeID(t.Destination()))
		}
	})

	if overlay != nil && len(overlay.Active) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		def.Walk(func(a *domain.Activity) {
			if slices.Contains(overlay.Active, a.ID()) {
				fmt.Fprintf(&sb, "    class %s active;\n", nodeID(a))
			}
		})
	}
	return sb.String()
}

func writeNodes(sb *strings.Builder, def *domain.ProcessDefinition, s *domain.Scope, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, a := range s.Activities() {
		if len(a.Activities()) > 0 {
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, nodeID(a), label(a))
			writeNodes(sb, def, &a.Scope, depth+1)
			fmt.Fprintf(sb, "%send\n", indent)
			continue
		}
		opener, closer := shape(def, a)
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, nodeID(a), opener, label(a), closer)
	}
}

func shape(def *domain.ProcessDefinition, a *domain.Activity) (string, string) {
	if def.Initial() == a {
		return "((", "))"
	}
	switch a.Behavior().(type) {
	case behavior.End, *behavior.End:
		return "(((", ")))"
	case behavior.ExclusiveGateway, *behavior.ExclusiveGateway:
		return "{", "}"
	case behavior.ParallelGateway, *behavior.ParallelGateway:
		return "{{", "}}"
	case behavior.Automatic, *behavior.Automatic:
		return "(", ")"
	}
	return "[", "]"
}

func label(a *domain.Activity) string {
	if a.IsAsync() {
		return a.ID() + " <br/> async"
	}
	return a.ID()
}

func nodeID(a *domain.Activity) string {
	return sanitizeMermaidID(strings.Join(a.Path(), "_"))
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
