// Package interpreter implements a compact state-chart execution engine.
//
// It covers compound, parallel and final states, guarded and eventless
// transitions, event descriptor matching and done.state events. Executable
// content (entry/exit actions, history states) is not supported.
package interpreter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/ports"
)

// DefaultMaxMicrosteps bounds the eventless/internal processing of one macrostep.
const DefaultMaxMicrosteps = 100

var (
	// ErrNotStarted is returned by Dispatch before a successful Start.
	ErrNotStarted = errors.New("engine not started")
	// ErrTerminated is returned by Dispatch after a top-level final state was reached.
	ErrTerminated = errors.New("state machine has terminated")
	// ErrMicrostepLimit is returned when eventless transitions never settle.
	ErrMicrostepLimit = errors.New("microstep limit exceeded")
)

type node struct {
	id       string
	kind     domain.StateKind
	initial  string
	parent   *node
	children []*node
	trans    []domain.Transition
	order    int
}

func (n *node) compound() bool { return len(n.children) > 0 && n.kind != domain.KindParallel }
func (n *node) parallel() bool { return n.kind == domain.KindParallel }
func (n *node) final() bool    { return n.kind == domain.KindFinal }
func (n *node) atomic() bool   { return len(n.children) == 0 }

type candidate struct {
	source *node
	t      domain.Transition
}

// Interpreter is a single state-chart instance. It is not safe for concurrent use.
type Interpreter struct {
	cond          ports.ConditionFunc
	maxMicrosteps int

	nodes    map[string]*node
	roots    []*node
	initial  string
	active   map[*node]bool
	internal []string
	started  bool
	done     bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxMicrosteps overrides DefaultMaxMicrosteps.
func WithMaxMicrosteps(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxMicrosteps = n
		}
	}
}

// New creates an interpreter whose guards are evaluated through cond.
// A guard error disables its transition.
func New(cond ports.ConditionFunc, opts ...Option) *Interpreter {
	i := &Interpreter{cond: cond, maxMicrosteps: DefaultMaxMicrosteps}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Factory adapts New to ports.EngineFactory.
func Factory(opts ...Option) ports.EngineFactory {
	return func(cond ports.ConditionFunc) ports.ExecutionEngine {
		return New(cond, opts...)
	}
}

// Start builds the chart from def and enters its initial configuration.
func (i *Interpreter) Start(def *domain.Definition) error {
	if def == nil || len(def.States) == 0 {
		return errors.New("definition has no states")
	}
	i.build(def.States)
	if err := i.validate(def); err != nil {
		return err
	}

	i.initial = def.InitialID()
	i.active = make(map[*node]bool)
	i.internal = nil
	i.done = false

	target := i.nodes[i.initial]
	i.enter(i.entrySet(nil, target))
	if err := i.settle(); err != nil {
		return err
	}
	i.started = true
	return nil
}

// build indexes the declared states; the first element declaring an id owns it.
func (i *Interpreter) build(roots []*domain.StateNode) {
	i.nodes = make(map[string]*node)
	owner := make(map[string]*domain.StateNode)

	type item struct {
		decl   *domain.StateNode
		parent *node
	}
	queue := make([]item, 0, len(roots))
	for _, r := range roots {
		if r != nil {
			queue = append(queue, item{decl: r})
		}
	}
	var top []*node
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if _, seen := owner[it.decl.ID]; seen {
			continue
		}
		owner[it.decl.ID] = it.decl
		n := &node{
			id:      it.decl.ID,
			kind:    it.decl.Kind,
			initial: it.decl.Initial,
			parent:  it.parent,
			trans:   it.decl.Transitions,
		}
		i.nodes[n.id] = n
		if it.parent == nil {
			top = append(top, n)
		} else {
			it.parent.children = append(it.parent.children, n)
		}
		for _, c := range it.decl.Children {
			if c != nil {
				queue = append(queue, item{decl: c, parent: n})
			}
		}
	}
	i.roots = top

	// Children were appended in breadth-first order, which keeps each
	// parent's children in declaration order. Number the tree depth first.
	order := 0
	var walk func(ns []*node)
	walk = func(ns []*node) {
		for _, n := range ns {
			n.order = order
			order++
			walk(n.children)
		}
	}
	walk(top)
}

func (i *Interpreter) validate(def *domain.Definition) error {
	if _, ok := i.nodes[def.InitialID()]; !ok {
		return fmt.Errorf("initial state '%s' does not exist", def.InitialID())
	}
	for _, n := range i.nodes {
		if n.initial != "" {
			target, ok := i.nodes[n.initial]
			if !ok || !isDescendant(target, n) {
				return fmt.Errorf("initial '%s' of state '%s' is not one of its descendants", n.initial, n.id)
			}
		}
		for _, t := range n.trans {
			for _, id := range strings.Fields(t.Target) {
				if _, ok := i.nodes[id]; !ok {
					return fmt.Errorf("transition from '%s' targets unknown state '%s'", n.id, id)
				}
			}
		}
	}
	return nil
}

// Dispatch processes one external event. On error the configuration is unchanged.
func (i *Interpreter) Dispatch(event string) error {
	if !i.started {
		return ErrNotStarted
	}
	if i.done {
		return ErrTerminated
	}

	snapshot := make(map[*node]bool, len(i.active))
	for n := range i.active {
		snapshot[n] = true
	}

	selected := i.selectTransitions(event)
	if len(selected) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoTransition, event)
	}
	i.microstep(selected)
	if err := i.settle(); err != nil {
		i.active = snapshot
		i.internal = nil
		i.done = false
		return err
	}
	return nil
}

// settle takes eventless transitions and internal events until none apply.
func (i *Interpreter) settle() error {
	for steps := 0; ; steps++ {
		if steps >= i.maxMicrosteps {
			return ErrMicrostepLimit
		}
		if i.done {
			return nil
		}
		if sel := i.selectTransitions(""); len(sel) > 0 {
			i.microstep(sel)
			continue
		}
		if len(i.internal) == 0 {
			return nil
		}
		ev := i.internal[0]
		i.internal = i.internal[1:]
		if sel := i.selectTransitions(ev); len(sel) > 0 {
			i.microstep(sel)
		}
	}
}

// ActiveConfiguration returns every entered state in document order.
func (i *Interpreter) ActiveConfiguration() []string {
	nodes := i.sortedActive()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.id)
	}
	return ids
}

// InitialStateID returns the state entered by Start.
func (i *Interpreter) InitialStateID() string {
	return i.initial
}

// Done reports whether a top-level final state has been reached.
func (i *Interpreter) Done() bool {
	return i.done
}

func (i *Interpreter) sortedActive() []*node {
	out := make([]*node, 0, len(i.active))
	for n := range i.active {
		out = append(out, n)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].order < out[b].order })
	return out
}

// selectTransitions picks, for each active atomic state in document order, the
// first enabled transition found walking from the state up to the root.
// A transition whose exit set overlaps an earlier selection is preempted.
func (i *Interpreter) selectTransitions(event string) []candidate {
	var selected []candidate
	exiting := make(map[*node]bool)

	for _, s := range i.sortedActive() {
		if !s.atomic() {
			continue
		}
		c, ok := i.firstEnabled(s, event)
		if !ok || containsCandidate(selected, c) {
			continue
		}
		exits := i.exitSet(c)
		conflict := false
		for _, n := range exits {
			if exiting[n] {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		for _, n := range exits {
			exiting[n] = true
		}
		selected = append(selected, c)
	}
	return selected
}

func (i *Interpreter) firstEnabled(s *node, event string) (candidate, bool) {
	for n := s; n != nil; n = n.parent {
		if n.final() {
			continue
		}
		for _, t := range n.trans {
			if !matchesEvent(t.Event, event) {
				continue
			}
			if t.Condition != "" && !i.guard(t.Condition) {
				continue
			}
			return candidate{source: n, t: t}, true
		}
	}
	return candidate{}, false
}

func (i *Interpreter) guard(expr string) bool {
	if i.cond == nil {
		return false
	}
	ok, err := i.cond(expr)
	return err == nil && ok
}

func containsCandidate(list []candidate, c candidate) bool {
	for _, x := range list {
		if x.source == c.source && x.t == c.t {
			return true
		}
	}
	return false
}

// matchesEvent reports whether an event name satisfies a space separated
// list of descriptors. An empty list only matches eventless processing.
func matchesEvent(descriptors, event string) bool {
	if descriptors == "" || event == "" {
		return descriptors == "" && event == ""
	}
	for _, d := range strings.Fields(descriptors) {
		if d == "*" {
			return true
		}
		d = strings.TrimSuffix(strings.TrimSuffix(d, "*"), ".")
		if event == d || strings.HasPrefix(event, d+".") {
			return true
		}
	}
	return false
}

func (i *Interpreter) targets(c candidate) []*node {
	var out []*node
	for _, id := range strings.Fields(c.t.Target) {
		out = append(out, i.nodes[id])
	}
	return out
}

// transitionDomain is the nearest compound proper ancestor of the source that
// also contains every target. Nil stands for the document root.
func (i *Interpreter) transitionDomain(c candidate) *node {
	targets := i.targets(c)
	for a := c.source.parent; a != nil; a = a.parent {
		if a.parallel() {
			continue
		}
		all := true
		for _, t := range targets {
			if !isDescendant(t, a) {
				all = false
				break
			}
		}
		if all {
			return a
		}
	}
	return nil
}

func (i *Interpreter) exitSet(c candidate) []*node {
	if c.t.Target == "" {
		return nil
	}
	dom := i.transitionDomain(c)
	var out []*node
	for n := range i.active {
		if dom == nil || isDescendant(n, dom) {
			out = append(out, n)
		}
	}
	return out
}

// entrySet returns the states entered when moving from dom to target:
// the path below dom, the default descendants of target, and the missing
// regions of every parallel ancestor on the path.
func (i *Interpreter) entrySet(dom, target *node) map[*node]bool {
	set := make(map[*node]bool)
	var path []*node
	for n := target; n != nil && n != dom; n = n.parent {
		set[n] = true
		path = append(path, n)
	}
	i.addDescendants(target, set)
	for _, a := range path {
		if !a.parallel() {
			continue
		}
		for _, region := range a.children {
			if !set[region] {
				i.addDescendants(region, set)
			}
		}
	}
	return set
}

func (i *Interpreter) addDescendants(n *node, set map[*node]bool) {
	set[n] = true
	switch {
	case n.parallel():
		for _, c := range n.children {
			i.addDescendants(c, set)
		}
	case n.compound():
		i.addDescendants(i.defaultChild(n), set)
	}
}

// defaultChild returns the child on the way to n's initial, or the first child.
func (i *Interpreter) defaultChild(n *node) *node {
	if target, ok := i.nodes[n.initial]; ok {
		for c := target; c != nil; c = c.parent {
			if c.parent == n {
				return c
			}
		}
	}
	return n.children[0]
}

func (i *Interpreter) microstep(selected []candidate) {
	for _, c := range selected {
		if c.t.Target == "" {
			continue
		}
		for _, n := range i.exitSet(c) {
			delete(i.active, n)
		}
		dom := i.transitionDomain(c)
		entered := make(map[*node]bool)
		for _, t := range i.targets(c) {
			for n := range i.entrySet(dom, t) {
				entered[n] = true
			}
		}
		i.enter(entered)
	}
}

func (i *Interpreter) enter(set map[*node]bool) {
	entered := make([]*node, 0, len(set))
	for n := range set {
		if !i.active[n] {
			entered = append(entered, n)
		}
		i.active[n] = true
	}
	sort.Slice(entered, func(a, b int) bool { return entered[a].order < entered[b].order })

	for _, n := range entered {
		if !n.final() {
			continue
		}
		p := n.parent
		if p == nil {
			i.done = true
			continue
		}
		i.internal = append(i.internal, "done.state."+p.id)
		if gp := p.parent; gp != nil && gp.parallel() && i.inFinalState(gp) {
			i.internal = append(i.internal, "done.state."+gp.id)
		}
	}
}

func (i *Interpreter) inFinalState(n *node) bool {
	switch {
	case n.parallel():
		for _, c := range n.children {
			if !i.inFinalState(c) {
				return false
			}
		}
		return true
	case n.compound():
		for _, c := range n.children {
			if c.final() && i.active[c] {
				return true
			}
		}
		return false
	default:
		return n.final() && i.active[n]
	}
}

// isDescendant reports whether n is a proper descendant of anc.
func isDescendant(n, anc *node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == anc {
			return true
		}
	}
	return false
}
