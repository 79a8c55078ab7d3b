package domain

// Transition defines a rule to move from one state to another.
type Transition struct {
	// Event is the trigger name. Empty means an eventless (automatic) transition.
	Event string `json:"event" yaml:"event,omitempty"`

	// Condition is a guard expression evaluated against the data model.
	// If empty, the transition is always enabled.
	Condition string `json:"condition,omitempty" yaml:"cond,omitempty"`

	// Target is the id of the destination state. Empty means a targetless transition.
	Target string `json:"target" yaml:"target,omitempty"`
}

// Guarded reports whether the transition carries a condition.
func (t Transition) Guarded() bool {
	return t.Condition != ""
}
