package validator

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding about a definition.
type Issue struct {
	Severity Severity `json:"severity"`
	// StateID names the offending state, or the data id for data-model findings.
	StateID string `json:"state_id,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.StateID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: '%s': %s", i.Severity, i.StateID, i.Message)
}

// Report collects the issues of one definition.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, stateID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, StateID: stateID, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the error-level issues, or returns nil.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

type entry struct {
	node   *domain.StateNode
	parent *domain.StateNode
}

// Validate checks the structure of def: ids, initial states, transition
// targets, data-model declarations and reachability from the initial state.
func Validate(def *domain.Definition) *Report {
	r := &Report{}
	if def == nil || len(def.States) == 0 {
		r.add(SeverityError, "", "definition has no states")
		return r
	}

	// Same ownership rule as the runtime: breadth first, first id wins.
	owned := make(map[string]entry)
	queue := make([]entry, 0, len(def.States))
	for _, s := range def.States {
		if s != nil {
			queue = append(queue, entry{node: s})
		}
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if e.node.ID == "" {
			parent := ""
			if e.parent != nil {
				parent = e.parent.ID
			}
			r.add(SeverityError, parent, "child state without id")
			continue
		}
		if _, dup := owned[e.node.ID]; dup {
			r.add(SeverityWarning, e.node.ID, "duplicate id; this declaration and its children are ignored")
			continue
		}
		owned[e.node.ID] = e
		for _, c := range e.node.Children {
			if c != nil {
				queue = append(queue, entry{node: c, parent: e.node})
			}
		}
	}

	ids := make([]string, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if _, ok := owned[def.InitialID()]; !ok {
		r.add(SeverityError, def.InitialID(), "initial state does not exist")
	}

	for _, id := range ids {
		n := owned[id].node
		if n.Initial != "" {
			target, ok := owned[n.Initial]
			if !ok || !isDescendant(owned, target.node.ID, id) {
				r.add(SeverityError, id, "initial '%s' is not one of its descendants", n.Initial)
			}
		}
		if n.Kind == domain.KindFinal && len(n.Transitions) > 0 {
			r.add(SeverityWarning, id, "final state declares transitions")
		}
		if n.Kind == domain.KindParallel && len(n.Children) == 0 {
			r.add(SeverityWarning, id, "parallel state has no regions")
		}
		for _, t := range n.Transitions {
			if t.Target != "" {
				if _, ok := owned[t.Target]; !ok {
					r.add(SeverityError, id, "transition '%s' targets unknown state '%s'", t.Event, t.Target)
				}
			}
			if t.Event == "" && t.Condition == "" && (t.Target == "" || t.Target == id) {
				r.add(SeverityWarning, id, "unconditional eventless transition never settles")
			}
		}
	}

	validateData(r, def)

	if len(r.Errors()) == 0 {
		reached := reachable(def, owned)
		for _, id := range ids {
			if !reached[id] {
				r.add(SeverityWarning, id, "state is unreachable from the initial state")
			}
		}
	}
	return r
}

func validateData(r *Report, def *domain.Definition) {
	switch strings.ToLower(def.Datamodel) {
	case "", domain.DatamodelECMAScript, "javascript", "js", domain.DatamodelLua:
	default:
		r.add(SeverityError, "", "unsupported datamodel '%s'", def.Datamodel)
	}

	seen := make(map[string]bool)
	for i, d := range def.Data {
		if d.ID == "" {
			r.add(SeverityError, "", "data element %d has no id", i+1)
			continue
		}
		if seen[d.ID] {
			r.add(SeverityWarning, d.ID, "duplicate data id")
		}
		seen[d.ID] = true
		if i > 0 {
			r.add(SeverityWarning, d.ID, "only the first data element is bound; '%s' is ignored", d.ID)
		}
		if d.Src != "" {
			if _, err := os.Stat(d.Src); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					r.add(SeverityError, d.ID, "data source '%s' does not exist", d.Src)
				} else {
					r.add(SeverityError, d.ID, "data source '%s': %v", d.Src, err)
				}
			}
		}
	}
}

func isDescendant(owned map[string]entry, id, ancestor string) bool {
	for p := owned[id].parent; p != nil; p = owned[p.ID].parent {
		if p.ID == ancestor {
			return true
		}
	}
	return false
}

// reachable over-approximates the states that can become active: entering a
// state enters its ancestors and default descendants, and every transition
// of an entered state may be taken.
func reachable(def *domain.Definition, owned map[string]entry) map[string]bool {
	seen := make(map[string]bool)
	queue := []string{def.InitialID()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		e, ok := owned[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		if e.parent != nil {
			queue = append(queue, e.parent.ID)
		}
		n := e.node
		switch {
		case n.Kind == domain.KindParallel:
			for _, c := range n.Children {
				if c != nil {
					queue = append(queue, c.ID)
				}
			}
		case len(n.Children) > 0:
			if n.Initial != "" {
				queue = append(queue, n.Initial)
			} else if n.Children[0] != nil {
				queue = append(queue, n.Children[0].ID)
			}
		}
		for _, t := range n.Transitions {
			if t.Target != "" {
				queue = append(queue, t.Target)
			}
		}
	}
	return seen
}
