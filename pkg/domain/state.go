package domain

// State is an indexed, immutable view of a declared state.
// The parent relation is a back-reference by id so the graph has no ownership cycles.
type State struct {
	ID          string       `json:"id"`
	ParentID    string       `json:"parent,omitempty"`
	Kind        StateKind    `json:"kind"`
	Children    []string     `json:"children,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Composite reports whether the state nests other states.
func (s *State) Composite() bool {
	return len(s.Children) > 0
}

// Transitional reports whether the state can own transitions.
func (s *State) Transitional() bool {
	return s.Kind != KindFinal
}

// ActiveState is a view record of an active state, rebuilt after every recomputation.
// Consumers must not retain instances across recomputations.
type ActiveState struct {
	ID          string       `json:"id"`
	Transitions []Transition `json:"transitions"`
}

// TreeNode is a read-only display projection of a state.
type TreeNode struct {
	ID       string     `json:"id"`
	Children []TreeNode `json:"children"`
}

// TransitionView is a transition annotated with its current enablement.
type TransitionView struct {
	Transition
	Enabled bool `json:"enabled"`
}

// ActiveStateView is an active state whose transitions carry enablement flags.
type ActiveStateView struct {
	ID          string           `json:"id"`
	Transitions []TransitionView `json:"transitions"`
}

// DataItem is a top-level data-model property rendered as text.
type DataItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
