package dsl

import "github.com/aretw0/wizvis/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	node     domain.StateNode
	parent   *StateBuilder
	children []*StateBuilder
}

func newStateBuilder(id string, kind domain.StateKind, parent *StateBuilder) *StateBuilder {
	return &StateBuilder{
		node:   domain.StateNode{ID: id, Kind: kind},
		parent: parent,
	}
}

// State adds a nested state and returns its builder.
func (s *StateBuilder) State(id string) *StateBuilder {
	return s.child(id, domain.KindState)
}

// Parallel adds a nested parallel state and returns its builder.
func (s *StateBuilder) Parallel(id string) *StateBuilder {
	return s.child(id, domain.KindParallel)
}

// Final adds a nested final state and returns its builder.
func (s *StateBuilder) Final(id string) *StateBuilder {
	return s.child(id, domain.KindFinal)
}

func (s *StateBuilder) child(id string, kind domain.StateKind) *StateBuilder {
	c := newStateBuilder(id, kind, s)
	s.children = append(s.children, c)
	return c
}

// Up returns the enclosing state's builder, or nil at the top level.
func (s *StateBuilder) Up() *StateBuilder {
	return s.parent
}

// Initial names the child entered by default.
func (s *StateBuilder) Initial(child string) *StateBuilder {
	s.node.Initial = child
	return s
}

// On adds a transition taken on event.
func (s *StateBuilder) On(event, target string) *StateBuilder {
	return s.transition(event, "", target)
}

// OnIf adds a transition taken on event while cond holds.
func (s *StateBuilder) OnIf(event, cond, target string) *StateBuilder {
	return s.transition(event, cond, target)
}

// Go adds an eventless unconditional transition.
func (s *StateBuilder) Go(target string) *StateBuilder {
	return s.transition("", "", target)
}

// Branch adds an eventless transition guarded by cond.
func (s *StateBuilder) Branch(cond, target string) *StateBuilder {
	return s.transition("", cond, target)
}

func (s *StateBuilder) transition(event, cond, target string) *StateBuilder {
	s.node.Transitions = append(s.node.Transitions, domain.Transition{
		Event:     event,
		Condition: cond,
		Target:    target,
	})
	return s
}

func (s *StateBuilder) build() *domain.StateNode {
	n := s.node
	n.Transitions = append([]domain.Transition(nil), s.node.Transitions...)
	for _, c := range s.children {
		n.Children = append(n.Children, c.build())
	}
	return &n
}
