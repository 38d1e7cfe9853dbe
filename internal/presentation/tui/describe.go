package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/pvm/pkg/domain"
	"github.com/aretw0/pvm/pkg/instance"
)

// DescribeDefinition renders def as a markdown document: one table row per
// activity, nested activities indented by their path.
func DescribeDefinition(def *domain.ProcessDefinition) string {
	var sb strings.Builder
	title := def.ID()
	if def.Name() != "" {
		title = fmt.Sprintf("%s (%s)", def.Name(), def.ID())
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if initial := def.Initial(); initial != nil {
		fmt.Fprintf(&sb, "Starts in `%s`.\n\n", initial.ID())
	}
	writeProperties(&sb, def.Properties())

	sb.WriteString("| Activity | Behavior | Flags | Transitions |\n")
	sb.WriteString("|---|---|---|---|\n")
	def.Walk(func(a *domain.Activity) {
		var targets []string
		for _, t := range a.Outgoing() {
			if t.Destination() != nil {
				targets = append(targets, t.Destination().ID())
			}
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n",
			strings.Join(a.Path(), "/"),
			BehaviorName(a.Behavior()),
			strings.Join(flags(a), ", "),
			strings.Join(targets, ", "),
		)
	})
	return sb.String()
}

// DescribeStatus renders an instance status as markdown.
func DescribeStatus(s *instance.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Instance `%s`\n\n", s.ID)
	fmt.Fprintf(&sb, "- **Process**: %s\n", s.DefinitionID)
	switch {
	case s.DeleteReason != "":
		fmt.Fprintf(&sb, "- **State**: cancelled (%s)\n", s.DeleteReason)
	case s.Ended:
		sb.WriteString("- **State**: ended\n")
	default:
		fmt.Fprintf(&sb, "- **Waiting in**: %s\n", strings.Join(s.ActiveActivities, ", "))
	}
	if s.PendingJobs > 0 {
		fmt.Fprintf(&sb, "- **Pending jobs**: %d\n", s.PendingJobs)
	}
	if len(s.Variables) > 0 {
		sb.WriteString("\n")
		writeProperties(&sb, s.Variables)
	}
	return sb.String()
}

// BehaviorName is the short type name of b, or "none".
func BehaviorName(b domain.ActivityBehavior) string {
	if b == nil {
		return "none"
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", b), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func flags(a *domain.Activity) []string {
	var fs []string
	if a.IsScope() {
		fs = append(fs, "scope")
	}
	if a.IsAsync() {
		fs = append(fs, "async")
	}
	if a.IsExclusive() {
		fs = append(fs, "exclusive")
	}
	return fs
}

func writeProperties(sb *strings.Builder, props map[string]any) {
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(sb, "- `%s`: %v\n", k, props[k])
	}
	sb.WriteString("\n")
}
