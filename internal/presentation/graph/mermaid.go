package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the diagram.
type Overlay struct {
	// Active lists the ids of the states currently shown as active.
	Active []string
}

// GenerateMermaid produces a Mermaid stateDiagram-v2 for the definition.
// Compound states become nested blocks, parallel regions are separated by
// "--", and transitions are labelled "event [condition]".
// The first declaration of an id wins; later duplicates are skipped.
func GenerateMermaid(def *domain.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	if def == nil {
		return sb.String()
	}

	seen := make(map[string]bool)
	var edges []string
	if initial := def.InitialID(); initial != "" {
		sb.WriteString(fmt.Sprintf("    [*] --> %s\n", sanitizeMermaidID(initial)))
	}
	writeStates(&sb, def.States, 1, seen, &edges)

	for _, e := range edges {
		sb.WriteString("    " + e + "\n")
	}

	if overlay != nil && len(overlay.Active) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000\n")
		styled := make(map[string]bool)
		for _, id := range overlay.Active {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || styled[safeID] || !seen[id] {
				continue
			}
			styled[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s active\n", safeID))
		}
	}
	return sb.String()
}

func writeStates(sb *strings.Builder, nodes []*domain.StateNode, depth int, seen map[string]bool, edges *[]string) {
	indent := strings.Repeat("    ", depth)
	for _, n := range nodes {
		if n == nil || n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		safeID := sanitizeMermaidID(n.ID)

		if safeID != n.ID {
			sb.WriteString(fmt.Sprintf("%sstate \"%s\" as %s\n", indent, n.ID, safeID))
		}

		switch {
		case n.Composite():
			sb.WriteString(fmt.Sprintf("%sstate %s {\n", indent, safeID))
			if n.Kind == domain.KindParallel {
				for i, region := range n.Children {
					if i > 0 {
						sb.WriteString(indent + "    --\n")
					}
					writeStates(sb, []*domain.StateNode{region}, depth+1, seen, edges)
				}
			} else {
				initial := n.Initial
				if initial == "" && n.Children[0] != nil {
					initial = n.Children[0].ID
				}
				sb.WriteString(fmt.Sprintf("%s    [*] --> %s\n", indent, sanitizeMermaidID(initial)))
				writeStates(sb, n.Children, depth+1, seen, edges)
			}
			sb.WriteString(indent + "}\n")
		case n.Kind == domain.KindFinal:
			*edges = append(*edges, fmt.Sprintf("%s --> [*]", safeID))
		default:
			if safeID == n.ID {
				sb.WriteString(fmt.Sprintf("%sstate %s\n", indent, safeID))
			}
		}

		for _, t := range n.Transitions {
			if t.Target == "" {
				continue
			}
			edge := fmt.Sprintf("%s --> %s", safeID, sanitizeMermaidID(t.Target))
			if label := transitionLabel(t); label != "" {
				edge += " : " + label
			}
			*edges = append(*edges, edge)
		}
	}
}

func transitionLabel(t domain.Transition) string {
	label := t.Event
	if t.Condition != "" {
		// Colons end the label in Mermaid syntax.
		cond := strings.ReplaceAll(t.Condition, ":", "#colon;")
		label = strings.TrimSpace(label + " [" + cond + "]")
	}
	return label
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
