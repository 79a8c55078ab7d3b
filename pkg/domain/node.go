package domain

// StateKind classifies a state element of a definition.
type StateKind string

const (
	// KindState is a plain <state>. It is compound when it has children.
	KindState StateKind = "state"
	// KindParallel is a <parallel> whose children are all active together.
	KindParallel StateKind = "parallel"
	// KindFinal is a <final> state. It never owns transitions.
	KindFinal StateKind = "final"
)

// StateNode represents a state element as declared in a definition document.
type StateNode struct {
	ID   string    `json:"id" yaml:"id"`
	Kind StateKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Initial names the child entered by default (compound states only).
	// If empty, the first child in document order is used.
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`

	Children    []*StateNode `json:"states,omitempty" yaml:"states,omitempty"`
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Transitional reports whether the state can own transitions (any non-final state).
func (n *StateNode) Transitional() bool {
	return n.Kind != KindFinal
}

// Composite reports whether the state nests other states.
func (n *StateNode) Composite() bool {
	return len(n.Children) > 0
}
