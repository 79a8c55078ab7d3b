package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/muesli/termenv"
)

// Status is the content of the inspector's main view.
type Status struct {
	Name    string
	Source  string
	Binding string
	Active  []domain.ActiveStateView
	Data    []domain.DataItem
}

// StatusMarkdown renders the active states, their transitions and the data model.
func StatusMarkdown(s Status) string {
	var sb strings.Builder
	title := s.Name
	if title == "" {
		title = "(unnamed)"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if s.Source != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", s.Source)
	}

	sb.WriteString("## Active states\n\n")
	if len(s.Active) == 0 {
		sb.WriteString("_none_\n\n")
	}
	for _, st := range s.Active {
		fmt.Fprintf(&sb, "- **%s**\n", st.ID)
		for _, t := range st.Transitions {
			fmt.Fprintf(&sb, "  - %s %s\n", enabledMark(t.Enabled), TransitionText(t.Transition))
		}
	}
	sb.WriteString("\n")

	if s.Binding != "" {
		fmt.Fprintf(&sb, "## Data `%s`\n\n", s.Binding)
		if len(s.Data) == 0 {
			sb.WriteString("_empty_\n")
		} else {
			sb.WriteString("| Name | Value |\n|---|---|\n")
			for _, item := range s.Data {
				fmt.Fprintf(&sb, "| %s | %s |\n", item.Name, strings.ReplaceAll(item.Value, "|", `\|`))
			}
		}
	}
	return sb.String()
}

func enabledMark(enabled bool) string {
	if enabled {
		return "[x]"
	}
	return "[ ]"
}

// TransitionText formats a transition as "event [cond] -> target".
func TransitionText(t domain.Transition) string {
	event := t.Event
	if event == "" {
		event = "(eventless)"
	}
	text := event
	if t.Condition != "" {
		text += " [" + t.Condition + "]"
	}
	if t.Target != "" {
		text += " -> " + t.Target
	}
	return text
}

// ColorTransition highlights enabled transitions in green and dims disabled ones.
func ColorTransition(t domain.TransitionView) string {
	s := termenv.String(TransitionText(t.Transition))
	if t.Enabled {
		return s.Foreground(termenv.ColorProfile().Color("#22c55e")).String()
	}
	return s.Faint().String()
}
